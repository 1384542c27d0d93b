package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/storefront/internal/viewmodel"
)

// errConfirmationRequired is returned by Confirm in JSON mode without
// --yes, where there is nobody to ask.
var errConfirmationRequired = errors.New("confirmation required: pass --yes")

// cliUI hosts view-models for a single command. Info notices are printed
// as they arrive in text mode; error notices are left to the command's
// error report.
type cliUI struct {
	out *OutputFormatter
	in  *bufio.Reader
	yes bool

	notices     []viewmodel.Notice
	navigations []string
}

func newUI(out *OutputFormatter, in io.Reader, yes bool) *cliUI {
	return &cliUI{out: out, in: bufio.NewReader(in), yes: yes}
}

func (u *cliUI) NavigateTo(screen viewmodel.Screen, params viewmodel.Params) {
	u.navigations = append(u.navigations, string(screen))
	u.out.VerboseLog("navigate: %s %+v", screen, params)
}

func (u *cliUI) GoBack() {
	u.navigations = append(u.navigations, "back")
	u.out.VerboseLog("navigate: back")
}

func (u *cliUI) Notify(n viewmodel.Notice) {
	u.notices = append(u.notices, n)
	if n.Level == viewmodel.NoticeInfo && !u.out.JSON() {
		fmt.Fprintf(u.out.Writer, "%s: %s\n", n.Title, n.Message)
	}
}

func (u *cliUI) Confirm(_ context.Context, p viewmodel.Prompt) (bool, error) {
	if u.yes {
		return true, nil
	}
	if u.out.JSON() {
		return false, errConfirmationRequired
	}
	fmt.Fprintf(u.out.Writer, "%s: %s [y/N] ", p.Title, p.Message)
	line, err := u.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(u.out.Writer)
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true, nil
	}
	return false, nil
}

// lastError returns the most recent error notice.
func (u *cliUI) lastError() (viewmodel.Notice, bool) {
	for i := len(u.notices) - 1; i >= 0; i-- {
		if u.notices[i].Level == viewmodel.NoticeError {
			return u.notices[i], true
		}
	}
	return viewmodel.Notice{}, false
}
