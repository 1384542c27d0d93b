package viewmodel

import "context"

// Screen names a navigation target.
type Screen string

const (
	LoginScreen         Screen = "LoginScreen"
	SignUpScreen        Screen = "SignUpScreen"
	ProductListScreen   Screen = "ProductListScreen"
	ProductDetailScreen Screen = "ProductDetailScreen"
	ProductFormScreen   Screen = "ProductFormScreen"
)

// Params is the navigation payload. ProductID is zero when the target
// screen takes no entry.
type Params struct {
	ProductID int64 `json:"product_id,omitempty"`
}

// Navigator is the router hosting the screens.
type Navigator interface {
	NavigateTo(screen Screen, params Params)
	GoBack()
}

// NoticeLevel distinguishes informational notices from errors.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// Notifier displays notices.
type Notifier interface {
	Notify(n Notice)
}

// Prompt is a two-choice confirmation request.
type Prompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Confirm string `json:"confirm"`
	Cancel  string `json:"cancel"`
}

// Confirmer asks the user to confirm a destructive action. It blocks
// until the user answers or ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// NopNavigator ignores navigation requests.
type NopNavigator struct{}

func (NopNavigator) NavigateTo(Screen, Params) {}
func (NopNavigator) GoBack()                   {}

// NopNotifier drops notices.
type NopNotifier struct{}

func (NopNotifier) Notify(Notice) {}
