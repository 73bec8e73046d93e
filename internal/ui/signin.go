package ui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// signinView holds the login and signup forms. Only one is shown at a time.
type signinView struct {
	a      *App
	ctx    context.Context
	pages  *tview.Pages
	login  *tview.Form
	signup *tview.Form

	email    string
	password string
	remember bool

	newEmail string
	newPass  string
	confirm  string
	agreed   bool
}

func newSigninView(a *App) *signinView {
	v := &signinView{a: a, pages: tview.NewPages(), ctx: context.Background()}
	v.login = tview.NewForm()
	v.signup = tview.NewForm()
	v.pages.AddPage("login", center(v.login, 60, 13), true, true)
	v.pages.AddPage("signup", center(v.signup, 60, 15), true, false)
	return v
}

func (v *signinView) root() tview.Primitive { return v.pages }

func (v *signinView) focus() tview.Primitive {
	if name, _ := v.pages.GetFrontPage(); name == "signup" {
		return v.signup
	}
	return v.login
}

func (v *signinView) hints() string {
	return "[::b]Tab[::r] next field  [::b]Enter[::r] submit"
}

func (v *signinView) input(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape {
		if name, _ := v.pages.GetFrontPage(); name == "signup" {
			v.showLogin()
			return nil
		}
	}
	return event
}

func (v *signinView) mount(ctx context.Context) {
	v.ctx = ctx
	v.email, v.password, v.remember = "", "", false
	if email, ok := v.a.state.Session.RememberedEmail(); ok {
		v.email, v.remember = email, true
	}
	v.buildLogin()
	v.buildSignup()
	v.pages.SwitchToPage("login")
}

func (v *signinView) buildLogin() {
	f := v.login
	f.Clear(true)
	f.AddInputField("Email", v.email, 40, nil, func(t string) { v.email = t })
	f.AddPasswordField("Password", "", 40, '*', func(t string) { v.password = t })
	f.AddCheckbox("Remember me", v.remember, func(checked bool) { v.remember = checked })
	f.AddButton("Sign in", v.submitLogin)
	if v.a.state.Session.External() {
		f.AddButton("Kakao", v.submitExternal)
	}
	f.AddButton("Create account", v.showSignup)
	f.SetBorder(true).SetTitle("Sign in")
}

func (v *signinView) buildSignup() {
	v.newEmail, v.newPass, v.confirm, v.agreed = "", "", "", false
	f := v.signup
	f.Clear(true)
	f.AddInputField("Email", "", 40, nil, func(t string) { v.newEmail = t })
	f.AddPasswordField("Password", "", 40, '*', func(t string) { v.newPass = t })
	f.AddPasswordField("Confirm", "", 40, '*', func(t string) { v.confirm = t })
	f.AddCheckbox("I agree to the terms", false, func(checked bool) { v.agreed = checked })
	f.AddButton("Sign up", v.submitSignup)
	f.AddButton("Back", v.showLogin)
	f.SetBorder(true).SetTitle("Create account")
}

func (v *signinView) submitLogin() {
	route, err := v.a.state.Session.Login(v.email, v.password, v.remember)
	if err != nil {
		return
	}
	v.a.navigate(route)
}

func (v *signinView) submitExternal() {
	v.a.flash("Continue the Kakao login in your browser...")
	ctx := v.ctx
	v.a.async(ctx, func() func() {
		// The gate reports failures itself.
		route, err := v.a.state.Session.LoginExternal(ctx)
		if err != nil {
			return nil
		}
		return func() { v.a.navigate(route) }
	})
}

func (v *signinView) submitSignup() {
	if err := v.a.state.Session.Signup(v.newEmail, v.newPass, v.confirm, v.agreed); err != nil {
		return
	}
	v.email, v.password = v.newEmail, ""
	v.buildLogin()
	v.buildSignup()
	v.showLogin()
}

func (v *signinView) showSignup() {
	v.pages.SwitchToPage("signup")
	v.a.app.SetFocus(v.signup)
}

func (v *signinView) showLogin() {
	v.pages.SwitchToPage("login")
	v.a.app.SetFocus(v.login)
}

// center places p in the middle of the screen at a fixed size.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}
