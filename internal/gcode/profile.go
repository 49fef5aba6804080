package gcode

// Profile holds the dialect of one saw controller.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	StartCode  []string `json:"start_code"`  // Commands at start of file
	BladeStart string   `json:"blade_start"` // Blade motor on (e.g., "M3 S%d")
	BladeStop  string   `json:"blade_stop"`  // Blade motor off
	LoadPause  string   `json:"load_pause"`  // Program pause while the operator loads a bar
	RapidMove  string   `json:"rapid_move"`  // G0 or equivalent
	FeedMove   string   `json:"feed_move"`   // G1 or equivalent
	EndCode    []string `json:"end_code"`    // Commands at end of file; [SafeZ] is replaced

	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"`

	DecimalPlaces int `json:"decimal_places"`
}

// Profiles lists the built-in controller dialects.
var Profiles = []Profile{
	{
		Name:          "Grbl",
		Description:   "Standard Grbl configuration (Arduino CNC shields)",
		StartCode:     []string{"G90", "G21"},
		BladeStart:    "M3 S%d",
		BladeStop:     "M5",
		LoadPause:     "M0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0", "M30"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC (formerly EMC2)",
		StartCode:     []string{"G90", "G21", "G94"},
		BladeStart:    "M3 S%d",
		BladeStop:     "M5",
		LoadPause:     "M0",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
	{
		Name:          "Fanuc",
		Description:   "Fanuc-style controllers with parenthesised comments",
		StartCode:     []string{"G90", "G21", "G94"},
		BladeStart:    "M3 S%d",
		BladeStop:     "M5",
		LoadPause:     "M00",
		RapidMove:     "G00",
		FeedMove:      "G01",
		EndCode:       []string{"G00 Z[SafeZ]", "G28 X0", "M30"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 3,
	},
}

// GetProfile returns the named profile, or the first one when the name is unknown.
func GetProfile(name string) Profile {
	for _, p := range Profiles {
		if p.Name == name {
			return p
		}
	}
	return Profiles[0]
}
