package tui

import (
	"github.com/vashuvermamarch/portfolio/internal/activity"
	"github.com/vashuvermamarch/portfolio/internal/repolist"
)

// reposStateMsg carries a loader transition; activation identifies the
// Projects visit that produced it.
type reposStateMsg struct {
	activation int
	state      repolist.State
}

type activityLoadedMsg struct {
	entries []activity.Entry
	err     error
}

type contactResetMsg struct {
	gen int
}

type openErrMsg struct {
	err error
}
