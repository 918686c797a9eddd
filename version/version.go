package version

// Name is the user-facing program name, used in CLI help and the
// Server/User-Agent headers.
const Name = "bakery"

var (
	version = ""
	commit  = ""
	date    = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

func Date() string {
	return date
}

func String() string {
	if version != "" {
		return version
	}
	if commit != "" {
		return commit
	}
	return "(unknown)"
}
