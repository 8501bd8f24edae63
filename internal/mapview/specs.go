package mapview

import "geoplot/internal/settings"

// SettingSpecs are the view settings and their defaults.
var SettingSpecs = []settings.Spec{
	{Name: "latlngOrder", Type: settings.Enum, Default: "latlng", Choices: []string{"latlng", "lnglat"}},
	{Name: "latlngPairSeparator", Type: settings.Text, Default: ";"},
	{Name: "center", Type: settings.Float, Default: []float64{20, 0}, Dimensions: 2},
	{Name: "zoom", Type: settings.Float, Default: 2.0},
	{Name: "autoposition", Type: settings.Boolean, Default: false},
	{Name: "scrollWheelZoom", Type: settings.Boolean, Default: true},
	{Name: "size", Type: settings.Text, Default: "small"},
	{Name: "scaleControl", Type: settings.Boolean, Default: true},
	{Name: "overviewControl", Type: settings.Boolean, Default: false},
	{Name: "type", Type: settings.Enum, Default: "normal", Choices: []string{"normal", "satellite", "hybrid", "terrain"}},
	{Name: "bubbleTip", Type: settings.Enum, Default: "top", Choices: []string{"top", "bottom"}},
	{Name: "mapHeight", Type: settings.Int, Default: 400},
	{Name: "mapConstructor", Type: settings.Function},
	{Name: "color", Type: settings.Text, Default: "#FF9000"},
	{Name: "colorCoder", Type: settings.Text},
	{Name: "sizeCoder", Type: settings.Text},
	{Name: "iconCoder", Type: settings.Text},
	{Name: "selectCoordinator", Type: settings.Text},

	{Name: "iconSize", Type: settings.Int, Default: 0},
	{Name: "iconFit", Type: settings.Enum, Default: "smaller", Choices: []string{"smaller", "larger", "width", "height", "both"}},
	{Name: "iconScale", Type: settings.Float, Default: 1.0},
	{Name: "iconOffsetX", Type: settings.Float, Default: 0.0},
	{Name: "iconOffsetY", Type: settings.Float, Default: 0.0},
	{Name: "shape", Type: settings.Enum, Default: "circle", Choices: []string{"circle", "square"}},
	{Name: "shapeWidth", Type: settings.Int, Default: 24},
	{Name: "shapeHeight", Type: settings.Int, Default: 24},
	{Name: "shapeAlpha", Type: settings.Float, Default: 0.7},
	{Name: "pin", Type: settings.Boolean, Default: true},
	{Name: "pinHeight", Type: settings.Int, Default: 6},
	{Name: "pinWidth", Type: settings.Int, Default: 6},
	{Name: "borderOpacity", Type: settings.Float, Default: 0.5},
	{Name: "borderWidth", Type: settings.Int, Default: 1},
	{Name: "borderColor", Type: settings.Text},
	{Name: "opacity", Type: settings.Float, Default: 0.7},
	{Name: "sizeLegendLabel", Type: settings.Text},
	{Name: "colorLegendLabel", Type: settings.Text},
	{Name: "iconLegendLabel", Type: settings.Text},
	{Name: "showHeader", Type: settings.Boolean, Default: true},
	{Name: "showSummary", Type: settings.Boolean, Default: true},
	{Name: "showFooter", Type: settings.Boolean, Default: true},
}

// Accessor names.
const (
	getProxy    = "getProxy"
	getLatlng   = "getLatlng"
	getPolygon  = "getPolygon"
	getPolyline = "getPolyline"
	getColorKey = "getColorKey"
	getSizeKey  = "getSizeKey"
	getIconKey  = "getIconKey"
	getIcon     = "getIcon"
)

func latlngBindings(extra ...settings.Binding) []settings.Binding {
	return append(extra, settings.Binding{
		Attribute:   "maxAutoZoom",
		Type:        settings.Float,
		BindingName: "maxAutoZoom",
		Optional:    true,
	})
}

// AccessorSpecs bind configuration attributes to item accessors. "marker"
// is an older spelling of "colorKey"; when both are set colorKey wins.
var AccessorSpecs = []settings.AccessorSpec{
	{Name: getProxy, Attribute: "proxy", Type: settings.Text},
	{Name: getLatlng, Alternatives: [][]settings.Binding{
		latlngBindings(settings.Binding{
			Attribute:    "latlng",
			Types:        []settings.Type{settings.Float, settings.Float},
			BindingNames: []string{"lat", "lng"},
		}),
		latlngBindings(
			settings.Binding{Attribute: "lat", Type: settings.Float, BindingName: "lat"},
			settings.Binding{Attribute: "lng", Type: settings.Float, BindingName: "lng"},
		),
	}},
	{Name: getPolygon, Attribute: "polygon", Type: settings.Text},
	{Name: getPolyline, Attribute: "polyline", Type: settings.Text},
	{Name: getColorKey, Attribute: "marker", Type: settings.Text},
	{Name: getColorKey, Attribute: "colorKey", Type: settings.Text},
	{Name: getSizeKey, Attribute: "sizeKey", Type: settings.Text},
	{Name: getIconKey, Attribute: "iconKey", Type: settings.Text},
	{Name: getIcon, Attribute: "icon", Type: settings.Text},
}
