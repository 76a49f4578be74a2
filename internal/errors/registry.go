package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Registered error codes.
const (
	CodeReadOnly         = "R001"
	CodeShapeMismatch    = "R002"
	CodeCircular         = "R003"
	CodeAsyncFailed      = "R004"
	CodeListenerPanic    = "R005"
	CodeUnknownEvent     = "R020"
	CodeHandlerNotFunc   = "R021"
	CodePropertyRejected = "R022"
	CodeConversionFailed = "R023"
	CodeDuplicateKey     = "R040"
	CodeWrapReparent     = "R041"
	CodeChildrenUpdate   = "R042"
	CodeUnsupportedChild = "R043"
	CodeInvalidTag       = "R100"
	CodeConstructFailed  = "R101"
	CodeWrapNotFound     = "R102"
	CodeHandleOwned      = "R103"
	CodeUnmounted        = "R110"
	CodeConfigInvalid    = "R120"
	CodeTreeInvalid      = "R130"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// State Errors (R001-R019)
	// ============================================

	CodeReadOnly: {
		Category: CategoryState,
		Message:  "Computed value is read-only",
		Detail:   "Set and Update are ignored on computed cells. Change one of its dependencies instead.",
	},
	CodeShapeMismatch: {
		Category: CategoryState,
		Message:  "State helper does not match value shape",
		Detail:   "Numeric, boolean, list and path helpers require the stored value to have the matching shape. The value was left unchanged.",
	},
	CodeCircular: {
		Category: CategoryState,
		Message:  "Circular dependency detected",
		Detail:   "A computed value re-entered its own recomputation or propagation exceeded the configured depth.",
	},
	CodeAsyncFailed: {
		Category: CategoryState,
		Message:  "Async load failed",
		Detail:   "The async function returned an error or panicked. The error cell holds the formatted message.",
	},
	CodeListenerPanic: {
		Category: CategoryState,
		Message:  "Listener panicked",
		Detail:   "A scheduled listener panicked. Remaining tasks keep running.",
	},

	// ============================================
	// Property Errors (R020-R039)
	// ============================================

	CodeUnknownEvent: {
		Category: CategoryProperty,
		Message:  "Unknown event name",
		Detail:   "The property looks like an event handler but has no entry in the event table.",
	},
	CodeHandlerNotFunc: {
		Category: CategoryProperty,
		Message:  "Event handler is not callable",
		Detail:   "Event properties must be functions.",
	},
	CodePropertyRejected: {
		Category: CategoryProperty,
		Message:  "Native property rejected",
		Detail:   "The scene graph refused the property name or value type.",
	},
	CodeConversionFailed: {
		Category: CategoryProperty,
		Message:  "Auto-conversion failed",
		Detail:   "A registered converter failed. The unconverted value was used.",
	},

	// ============================================
	// Reconcile Errors (R040-R059)
	// ============================================

	CodeDuplicateKey: {
		Category: CategoryReconcile,
		Message:  "Duplicate child key",
		Detail:   "Two siblings share a key. The later one was suffixed to stay unique.",
	},
	CodeWrapReparent: {
		Category: CategoryReconcile,
		Message:  "Wrapped instance reparented",
		Detail:   "A wrapped instance was moved away from its original parent.",
	},
	CodeChildrenUpdate: {
		Category: CategoryReconcile,
		Message:  "Reactive children update failed",
		Detail:   "Re-diffing children after a reactive change failed.",
	},
	CodeUnsupportedChild: {
		Category: CategoryReconcile,
		Message:  "Unsupported child value",
		Detail:   "Children must be elements, element lists or reactive sources producing them.",
	},

	// ============================================
	// Build Errors (R100-R109)
	// ============================================

	CodeInvalidTag: {
		Category: CategoryBuild,
		Message:  "Invalid element tag",
		Detail:   "Elements that do not wrap an existing instance need a non-empty class name.",
	},
	CodeConstructFailed: {
		Category: CategoryBuild,
		Message:  "Native construction failed",
		Detail:   "The scene graph could not create an instance of the requested class.",
	},
	CodeWrapNotFound: {
		Category: CategoryBuild,
		Message:  "Wrap target not found",
		Detail:   "No child with the requested name exists under the parent.",
	},
	CodeHandleOwned: {
		Category: CategoryBuild,
		Message:  "Handle already bound",
		Detail:   "Another live element already owns this native handle.",
	},

	// ============================================
	// Render Errors (R110-R119)
	// ============================================

	CodeUnmounted: {
		Category: CategoryRender,
		Message:  "Root is unmounted",
		Detail:   "The reactive root was cleaned up and cannot render again.",
	},

	// ============================================
	// Config / CLI Errors (R120-R139)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be read or failed validation.",
	},
	CodeTreeInvalid: {
		Category: CategoryCLI,
		Message:  "Invalid element tree file",
		Detail:   "The tree file could not be decoded into elements.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
