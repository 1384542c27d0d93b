package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/viewmodel"
)

func (s *Shell) price(p catalog.Price) string {
	return p.Format(s.locale, s.currency)
}

func (s *Shell) renderList(st viewmodel.ListState) {
	switch {
	case st.IsLoading():
		if _, ok := st.Background(); ok {
			fmt.Fprintln(s.out, "refreshing...")
		} else {
			fmt.Fprintln(s.out, "loading products...")
		}
	case st.IsError():
		fmt.Fprintf(s.out, "Error loading products: %s\nType 'refresh' to try again.\n", st.Message())
	case viewmodel.IsEmptyList(st):
		fmt.Fprintln(s.out, "No products yet. Use 'add' to create one.")
	default:
		entries, _ := st.Value()
		for _, e := range entries {
			fmt.Fprintf(s.out, "  #%-4d %-30s %s\n", e.ID, e.Name, s.price(e.Price))
		}
	}
}

func (s *Shell) renderDetail(st viewmodel.DetailState) {
	switch {
	case st.IsLoading():
		fmt.Fprintln(s.out, "loading product...")
	case st.IsError():
		fmt.Fprintf(s.out, "Error: %s\nType 'back' to return.\n", st.Message())
	default:
		e, _ := st.Value()
		fmt.Fprintf(s.out, "#%d %s\n", e.ID, e.Name)
		if e.Description != "" {
			fmt.Fprintf(s.out, "  %s\n", strings.ReplaceAll(e.Description, "\n", "\n  "))
		}
		fmt.Fprintf(s.out, "  Price: %s\n", s.price(e.Price))
		fmt.Fprintf(s.out, "  Created: %s\n", formatDate(e.CreatedAt))
	}
}

func (s *Shell) renderForm(f *viewmodel.EntryForm, st viewmodel.FormState) {
	switch {
	case st.IsLoading():
		fmt.Fprintln(s.out, "loading product...")
	case st.IsError():
		fmt.Fprintf(s.out, "Error: %s\n", st.Message())
	case f.Editing():
		d, _ := st.Value()
		fmt.Fprintf(s.out, "current: %s;%s;%s\n", d.Name, d.Price.String(), d.Description)
	}
}

func (s *Shell) renderNotice(n viewmodel.Notice) {
	mark := "*"
	if n.Level == viewmodel.NoticeError {
		mark = "!"
	}
	fmt.Fprintf(s.out, "%s %s: %s\n", mark, n.Title, n.Message)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "not available"
	}
	return t.Local().Format("02/01/2006 15:04")
}
