package dashboard

import "fmt"

// State is the lifecycle of the resource view. Data is attached to the controller only
// in the states that carry it: an inventory in Loaded, and a stale one in Failed.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Level classifies a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is the user-facing message produced by the last transition.
type Notice struct {
	Level Level
	Title string
	Text  string
}

// Empty reports whether no notice has been raised.
func (n Notice) Empty() bool {
	return n.Title == "" && n.Text == ""
}

const defaultFetchError = "Failed to fetch AWS resources"

var (
	noticeMissingCredentials = Notice{Level: LevelWarning, Title: "Missing Credentials", Text: "Please enter both AWS Access Key and Secret Key"}
	noticeNothingToRefresh   = Notice{Level: LevelWarning, Title: "Missing Credentials", Text: "Please enter AWS credentials before refreshing"}
	noticeFetchInFlight      = Notice{Level: LevelWarning, Title: "Fetch In Progress", Text: "Please wait for the current fetch to finish"}
	noticeNoSession          = Notice{Level: LevelError, Title: "Not Logged In", Text: "Please log in before fetching resources"}
	noticeFetched            = Notice{Level: LevelSuccess, Title: "Success", Text: "AWS resources fetched successfully"}
	noticeLoggedOut          = Notice{Level: LevelInfo, Title: "Logged Out", Text: "You have been successfully logged out"}
)

func regionNotice(region string) Notice {
	return Notice{Level: LevelWarning, Title: "Unknown Region", Text: fmt.Sprintf("%q is not a supported AWS region", region)}
}

func errorNotice(detail string) Notice {
	if detail == "" {
		detail = defaultFetchError
	}
	return Notice{Level: LevelError, Title: "Error", Text: detail}
}
