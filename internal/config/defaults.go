package config

// DefaultTOML returns the default configuration as a TOML string. It is
// written to disk when no configuration file exists.
func DefaultTOML() string {
	return header + `[viewer]
scroll_speed = 40.0           # pixels scrolled per key press
render_precision = 1.5        # rasterize at zoom * precision for sharper text
memory_limit = 314572800      # bytes of page bitmaps kept in memory
scale_default = 0.0           # initial zoom; 0 fits the page width
scale_min = 0.2
scale_max = 8.0
scale_amount = 1.1            # zoom factor per key press
margin_bottom = 10.0          # pixels after the last page
page_gap = 10.0               # points between pages
pages_preloaded = 2           # pages rendered ahead on each side
sequence_timeout_ms = 1000    # how long a partial key sequence waits

[bar]
enabled = true
position = "bottom"           # "top" or "bottom"
background = "#0087ff"
foreground = "white"
segment_mode = " {mode} "
segment_file = " {file} "
segment_page = " {page}/{pages} "
segment_scale = " {scale} "

[uri_hint]
enabled = true
width = 0.8                   # fraction of the terminal width
background = "#1c1c1c"
foreground = "#d0d0d0"

[log]
file = ""                     # empty disables logging unless MEOWPDF_LOG is set
level = "info"

# Keys use vim notation: "gg" is g twice, "G" is shift+g, named keys and
# modifiers go in angle brackets: <Up>, <C-d>, <A-x>, <S-Up>, <Space>, <lt>.
[bindings]
scroll_down = ["j", "<Down>"]
scroll_up = ["k", "<Up>"]
scroll_left = ["h", "<Left>"]
scroll_right = ["l", "<Right>"]
page_down = ["<C-f>", "<PageDown>", "<Space>"]
page_up = ["<C-b>", "<PageUp>"]
half_page_down = "<C-d>"
half_page_up = "<C-u>"
next_page = "J"
prev_page = "K"
jump_first_page = ["gg", "<Home>"]
jump_last_page = ["G", "<End>"]
zoom_in = ["+", "="]
zoom_out = "-"
fit_width = "zw"
center_viewer = "zc"
toggle_alpha = "ta"
toggle_inverse = "ti"
quit = ["q", "<C-c>"]
`
}
