package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError  = "error"
	FieldPath   = "path"
	FieldOutput = "output"
	FieldConfig = "config"

	// Conversion fields.
	FieldCharset     = "charset"
	FieldDensity     = "density"
	FieldAspect      = "aspect_scale"
	FieldColor       = "color"
	FieldBrightness  = "brightness"
	FieldContrast    = "contrast"
	FieldInterval    = "interval"
	FieldRows        = "rows"
	FieldCols        = "cols"
	FieldWidth       = "width"
	FieldHeight      = "height"
	FieldGeneration  = "generation"
	FieldElapsed     = "elapsed"
	FieldStale       = "stale"
	FieldWarning     = "warning"
	FieldConcurrency = "concurrency"
	FieldSetting     = "setting"

	// Protocol fields.
	FieldMethod = "method"
	FieldTool   = "tool"
	FieldID     = "id"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
