package version

// Version is the release of the tester; overridden with -ldflags at build time.
var Version = "dev"

// Build is the VCS revision, if known.
var Build = ""

// BuildDate is the UTC RFC3339 build timestamp injected by the release pipeline.
var BuildDate = ""

func Full() string {
	if Build == "" {
		return Version
	}
	return Version + "+" + Build
}

// UserAgent identifies the tester on outbound requests to the service under test.
func UserAgent() string {
	return "drugstore-tester/" + Full()
}
