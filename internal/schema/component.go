package schema

// WidgetKind enumerates the UI widgets a field can resolve to.
type WidgetKind int

const (
	WidgetText WidgetKind = iota
	WidgetSwitch
	WidgetSelect
	WidgetImage
	WidgetFile
	WidgetSearchSelect
	WidgetMultiSelect
)

// String returns the widget name as used in site props and page specs.
func (w WidgetKind) String() string {
	switch w {
	case WidgetText:
		return "text"
	case WidgetSwitch:
		return "switch"
	case WidgetSelect:
		return "select"
	case WidgetImage:
		return "image"
	case WidgetFile:
		return "file"
	case WidgetSearchSelect:
		return "searchable-select"
	case WidgetMultiSelect:
		return "multi-select"
	default:
		return "unknown"
	}
}

// ParseWidgetKind converts an explicit component site prop into a
// WidgetKind.
func ParseWidgetKind(s string) (WidgetKind, bool) {
	switch s {
	case "text":
		return WidgetText, true
	case "switch":
		return WidgetSwitch, true
	case "select":
		return WidgetSelect, true
	case "image":
		return WidgetImage, true
	case "file":
		return WidgetFile, true
	case "searchable-select":
		return WidgetSearchSelect, true
	case "multi-select":
		return WidgetMultiSelect, true
	default:
		return 0, false
	}
}

// ComponentSpec is the resolved UI widget assignment for one field,
// including the widget-specific rendering parameters.
type ComponentSpec struct {
	Field  string
	Widget WidgetKind

	// Options carries the enum member set for select widgets, in
	// declaration order.
	Options []string

	// AllowDownload applies to file widgets.
	AllowDownload bool

	// Lookup binding for searchable-select and multi-select widgets.
	TargetModel string
	Endpoint    string
	LabelField  string
}
