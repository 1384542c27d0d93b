package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/storefront/internal/viewmodel"
)

const helpText = `Commands:
  login <email> <password>                       sign in
  signup <name>;<email>;<password>;<confirmation> create an account
  logout                                         sign out
  whoami                                         show the signed-in user
  list | refresh                                 show the product list
  show <id>                                      open a product
  add <name>;<price>[;<description>]             create a product
  edit [<id>] [<name>;<price>[;<description>]]   edit a product
  save <name>;<price>[;<description>]            submit the open form
  delete <id>                                    delete a product
  back                                           previous screen
  help                                           this text
  quit                                           leave the shell`

// handleInput processes one input line. It reports whether the shell
// should stop. Called only from Run.
func (s *Shell) handleInput(e Event) bool {
	if s.pending != nil {
		answer := !e.EOF && isYes(e.Line)
		s.pending <- answer
		s.pending = nil
		if !answer {
			fmt.Fprintln(s.out, "cancelled")
		}
		return e.EOF
	}
	if e.EOF {
		return true
	}

	cmd, rest, _ := strings.Cut(strings.TrimSpace(e.Line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return true

	case "login":
		email, password, _ := strings.Cut(rest, " ")
		s.start(func(ctx context.Context) { _, _ = s.auth.SignIn(ctx, email, strings.TrimSpace(password)) })

	case "signup":
		parts := splitFields(rest, 4)
		form := viewmodel.SignUpForm{Name: parts[0], Email: parts[1], Password: parts[2], Confirmation: parts[3]}
		s.start(func(ctx context.Context) { _, _ = s.auth.SignUp(ctx, form) })

	case "logout":
		s.start(func(ctx context.Context) { _ = s.auth.SignOut(ctx) })

	case "whoami":
		if sess, ok := s.auth.CurrentSession(); ok {
			fmt.Fprintf(s.out, "%s (%s)\n", sess.User.Email, sess.User.FullName)
		} else {
			fmt.Fprintln(s.out, "not signed in")
		}

	case "list", "refresh":
		if s.top().screen == viewmodel.ProductListScreen {
			s.start(func(ctx context.Context) { s.list.Refresh(ctx) })
		} else {
			s.navigate(frame{screen: viewmodel.ProductListScreen})
		}

	case "show":
		if id, ok := s.parseID(rest); ok {
			s.list.Open(id)
		}

	case "add":
		if rest != "" {
			input := parseForm(rest)
			s.pendingForm = &input
		}
		s.list.Add()

	case "edit":
		idText, formText, _ := strings.Cut(rest, " ")
		if s.top().screen == viewmodel.ProductDetailScreen && (idText == "" || strings.Contains(idText, ";")) {
			if rest != "" {
				input := parseForm(rest)
				s.pendingForm = &input
			}
			s.detail.Edit()
			return false
		}
		id, ok := s.parseID(idText)
		if !ok {
			return false
		}
		if formText != "" {
			input := parseForm(formText)
			s.pendingForm = &input
		}
		s.list.Edit(id)

	case "save":
		if s.form == nil {
			fmt.Fprintln(s.out, "no form is open")
			return false
		}
		f, input := s.form, parseForm(rest)
		s.start(func(ctx context.Context) { _, _ = f.Submit(ctx, input) })

	case "delete":
		id, ok := s.parseID(rest)
		if !ok {
			return false
		}
		if s.top().screen != viewmodel.ProductListScreen {
			fmt.Fprintln(s.out, "delete works from the product list")
			return false
		}
		s.start(func(ctx context.Context) { s.list.RequestDelete(ctx, id) })

	case "back":
		s.back()

	default:
		fmt.Fprintf(s.out, "unknown command %q, type 'help'\n", cmd)
	}
	return false
}

func (s *Shell) parseID(text string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(text), "#"), 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(s.out, "invalid product id %q\n", text)
		return 0, false
	}
	return id, true
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}

// splitFields splits on ';' into exactly n trimmed fields.
func splitFields(text string, n int) []string {
	parts := strings.SplitN(text, ";", n)
	out := make([]string, n)
	for i := range out {
		if i < len(parts) {
			out[i] = strings.TrimSpace(parts[i])
		}
	}
	return out
}

func parseForm(text string) viewmodel.FormInput {
	parts := splitFields(text, 3)
	return viewmodel.FormInput{Name: parts[0], Price: parts[1], Description: parts[2]}
}
