package tui

import (
	"strings"

	"github.com/emiliopalmerini/helix-console/internal/pkg/tui/theme"
)

// NavItem represents a navigation item
type NavItem struct {
	Key    string
	Label  string
	Active bool
}

// NavBar renders a navigation bar
type NavBar struct {
	Items  []NavItem
	styles *theme.Styles
}

// NewNavBar creates a new navigation bar
func NewNavBar(items []NavItem) *NavBar {
	return &NavBar{
		Items:  items,
		styles: theme.Default(),
	}
}

// View renders the navigation bar as toggle-style tabs
func (n NavBar) View() string {
	var items []string

	for _, item := range n.Items {
		if item.Active {
			items = append(items, n.styles.Active.Render(item.Label))
			continue
		}
		key := n.styles.Muted.Render("[" + item.Key + "]")
		items = append(items, key+" "+n.styles.Inactive.Render(item.Label))
	}

	return strings.Join(items, n.styles.Separator.Render("  /  "))
}
