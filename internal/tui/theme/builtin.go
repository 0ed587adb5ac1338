package theme

// Catppuccin flavours plus a plain light theme.
var builtin = map[string]string{
	"mocha": `
name = "mocha"
bg = "#1e1e2e"
bg_highlight = "#313244"
bg_selection = "#45475a"
fg = "#cdd6f4"
fg_muted = "#7f849c"
accent = "#cba6f7"
session = "#89b4fa"
quiz = "#fab387"
revision = "#a6e3a1"
planned = "#94e2d5"
current = "#f9e2af"
warning = "#f38ba8"
`,
	"macchiato": `
name = "macchiato"
bg = "#24273a"
bg_highlight = "#363a4f"
bg_selection = "#494d64"
fg = "#cad3f5"
fg_muted = "#8087a2"
accent = "#c6a0f6"
session = "#8aadf4"
quiz = "#f5a97f"
revision = "#a6da95"
planned = "#8bd5ca"
current = "#eed49f"
warning = "#ed8796"
`,
	"frappe": `
name = "frappe"
bg = "#303446"
bg_highlight = "#414559"
bg_selection = "#51576d"
fg = "#c6d0f5"
fg_muted = "#838ba7"
accent = "#ca9ee6"
session = "#8caaee"
quiz = "#ef9f76"
revision = "#a6d189"
planned = "#81c8be"
current = "#e5c890"
warning = "#e78284"
`,
	"latte": `
name = "latte"
bg = "#eff1f5"
bg_highlight = "#e6e9ef"
bg_selection = "#ccd0da"
fg = "#4c4f69"
fg_muted = "#8c8fa1"
accent = "#8839ef"
session = "#1e66f5"
quiz = "#fe640b"
revision = "#40a02b"
planned = "#179299"
current = "#df8e1d"
warning = "#d20f39"
`,
	"light": `
name = "light"
bg = "#ffffff"
bg_highlight = "#f2f2f2"
bg_selection = "#dddddd"
fg = "#222222"
fg_muted = "#777777"
accent = "#2f6feb"
session = "#2f6feb"
quiz = "#c2410c"
revision = "#2f8f2f"
current = "#c97b00"
warning = "#b91c1c"
form_border = "#222222"
`,
}
