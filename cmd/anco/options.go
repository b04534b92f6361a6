package main

// Options is the root for the CLI. Struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config  string `short:"f" long:"config" description:"configuration file (TOML, YAML or JSON)"`
	Verbose bool   `short:"v" long:"verbose" description:"log at debug level"`
	Library string `long:"library" description:"engine shared library path"`
	Wasm    string `long:"wasm" description:"engine WebAssembly module URL (file://, mem://, ...)"`

	Convert  *ConvertCmd  `command:"convert"  description:"Convert kana given as arguments or read from stdin"`
	Session  *SessionCmd  `command:"session"  description:"Interactive conversion session"`
	Evaluate *EvaluateCmd `command:"evaluate" description:"Evaluate conversion quality against a JSON corpus"`
	Version  *VersionCmd  `command:"version"  description:"Print version information"`
}

// Init instantiates every sub-command and binds it to a. go-flags fills the
// fields of whichever one is selected; the global options above are parsed
// before its Execute runs.
func (o *Options) Init(a *app) {
	a.opts = o
	o.Convert = &ConvertCmd{app: a}
	o.Session = &SessionCmd{app: a}
	o.Evaluate = &EvaluateCmd{app: a}
	o.Version = &VersionCmd{app: a}
}
