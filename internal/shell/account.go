package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/gateway"
	"github.com/clicafe/clicafe/pkg/protocol"
)

var errOffline = usagef("CLIcafe is running offline. Set CLICAFE_API_URL to sign in.")

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}

type sshCommand struct {
	email string
}

func parseSSH(a Args) (sshCommand, error) {
	if a.Arg(0) != "-i" || !validEmail(a.Arg(1)) || len(a.Positional) > 2 {
		return sshCommand{}, usagef("Usage: ssh -i email@example.com")
	}
	return sshCommand{email: a.Arg(1)}, nil
}

// runSSH starts a login: the next line is read masked as the password.
func (d *Dispatcher) runSSH(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseSSH(a)
	if err != nil {
		return Result{}, err
	}
	if !d.Online() {
		return Result{}, errOffline
	}
	if err := s.Flow.To(session.AwaitingPassword); err != nil {
		return Result{}, err
	}
	s.Flow.PendingEmail = cmd.email
	return lines("Enter password:"), nil
}

// completePassword consumes the masked line. The line is the secret and is
// never tokenised or logged.
func (d *Dispatcher) completePassword(ctx context.Context, line string, s *session.Session) (Result, error) {
	email := s.Flow.PendingEmail
	registration := s.Flow.PendingRegistration
	s.Flow.Reset()

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return Result{}, usagef("Password cannot be empty")
	}
	if registration != nil {
		return d.finishRegister(ctx, *registration, password)
	}

	resp, err := d.opts.Gateway.Login(ctx, email, password)
	if err != nil {
		if gateway.IsStatus(err, 400) || gateway.IsStatus(err, 401) {
			return Result{}, usagef("Invalid credentials. Please try again.")
		}
		return Result{}, fmt.Errorf("login: %w", err)
	}

	user := resp.UserProfile
	if user.Email == "" {
		user.Email = email
	}
	if s.LoggedIn() && !strings.EqualFold(s.User.Email, user.Email) {
		// A different account: nothing of the previous user carries over.
		s.SignOut()
	}
	previous := s.LastLogin
	now := d.opts.Now()
	s.SignIn(&user, now)
	if err := d.cart.Sync(ctx, s); err != nil {
		logging.WithContext(ctx).Warn("cart sync after login failed", logging.Err(err))
	}
	if d.opts.OnLogin != nil {
		d.opts.OnLogin(email, resp)
	}
	logging.WithContext(ctx).Info("signed in", logging.String("email", email))

	if previous.IsZero() {
		previous = now
	}
	return lines(d.Banner(&user, previous)...), nil
}

// Banner returns the lines shown after signing in.
func (d *Dispatcher) Banner(user *protocol.UserProfile, lastLogin time.Time) []string {
	return []string{
		fmt.Sprintf("CLIcafe %s 1.0.0-coffee-roast #1 SMP PREEMPT_DYNAMIC Arabica 1.0.1 (%s) x86_64",
			d.opts.Hostname, d.opts.Now().Format("2006-01-02")),
		"",
		"The programs included with CLIcafe are fair-trade certified;",
		"each bean was ethically sourced from small farms.",
		"",
		"CLIcafe comes with ABSOLUTELY NO WARRANTY, to the extent",
		"permitted by applicable coffee laws.",
		fmt.Sprintf("Last login: %s from %s", lastLogin.Format("Mon Jan _2 15:04:05 2006"), d.opts.Hostname),
		fmt.Sprintf("Welcome, %s!", user.DisplayName()),
	}
}

type registerCommand struct {
	req protocol.RegisterRequest
}

func parseRegister(a Args) (registerCommand, error) {
	if err := a.Only("email", "name", "paternal-surname", "maternal-surname", "phone"); err != nil {
		return registerCommand{}, err
	}
	cmd := registerCommand{req: protocol.RegisterRequest{
		Email:           a.Value("email"),
		Name:            a.Value("name"),
		PaternalSurname: a.Value("paternal-surname"),
		MaternalSurname: a.Value("maternal-surname"),
		Phone:           a.Value("phone"),
	}}
	if !validEmail(cmd.req.Email) || cmd.req.Name == "" {
		return cmd, usagef("Usage: register --email=<email> --name=<name> [--paternal-surname= --maternal-surname= --phone=]")
	}
	return cmd, nil
}

func (d *Dispatcher) runRegister(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseRegister(a)
	if err != nil {
		return Result{}, err
	}
	if !d.Online() {
		return Result{}, errOffline
	}
	if err := s.Flow.To(session.AwaitingPassword); err != nil {
		return Result{}, err
	}
	s.Flow.PendingEmail = cmd.req.Email
	s.Flow.PendingRegistration = &cmd.req
	return lines("Choose a password:"), nil
}

func (d *Dispatcher) finishRegister(ctx context.Context, req protocol.RegisterRequest, password string) (Result, error) {
	req.Password = password
	if _, err := d.opts.Gateway.Register(ctx, req); err != nil {
		return Result{}, fmt.Errorf("register: %w", err)
	}
	return lines(
		"Registration successful.",
		"Sign in with: ssh -i "+req.Email,
	), nil
}

func (d *Dispatcher) runPasswd(ctx context.Context, s *session.Session, a Args) (Result, error) {
	email := a.Arg(0)
	if !validEmail(email) {
		return Result{}, usagef("Usage: passwd email@example.com")
	}
	if !d.Online() {
		return Result{}, errOffline
	}
	ack, err := d.opts.Gateway.ResetPassword(ctx, email)
	if err != nil {
		return Result{}, fmt.Errorf("password reset: %w", err)
	}
	msg := ack.Text()
	if msg == "" {
		msg = "If the account exists, a reset link has been sent to " + email
	}
	return lines("Server response: " + msg), nil
}

type updateAccountCommand struct {
	email string
	phone string
}

const updateAccountUsage = "Usage: update-account [--email=<email>] [--phone=<phone>]"

func parseUpdateAccount(a Args) (updateAccountCommand, error) {
	if err := a.Only("email", "phone"); err != nil {
		return updateAccountCommand{}, err
	}
	cmd := updateAccountCommand{email: a.Value("email"), phone: a.Value("phone")}
	if cmd.email == "" && cmd.phone == "" {
		return cmd, usagef(updateAccountUsage)
	}
	if cmd.email != "" && !validEmail(cmd.email) {
		return cmd, usagef("Invalid email address: %s", cmd.email)
	}
	return cmd, nil
}

// runUpdateAccount edits the profile shown by whoami for this session.
func (d *Dispatcher) runUpdateAccount(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseUpdateAccount(a)
	if err != nil {
		return Result{}, err
	}
	if !d.Online() {
		return Result{}, errOffline
	}
	if !s.LoggedIn() {
		return Result{}, gateway.ErrNotAuthenticated
	}
	u := *s.User
	if cmd.email != "" {
		u.Email = cmd.email
	}
	if cmd.phone != "" {
		u.Phone = cmd.phone
	}
	s.User = &u
	logging.WithContext(ctx).Info("account updated", logging.String("email", u.Email))
	return lines("Account updated successfully"), nil
}

func (d *Dispatcher) runWhoami(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if !s.LoggedIn() {
		return lines("guest (not signed in)"), nil
	}
	u := s.User
	full := u.FullName
	if full == "" {
		full = strings.TrimSpace(strings.Join([]string{u.Name, u.PaternalSurname, u.MaternalSurname}, " "))
	}
	if full == "" {
		return lines(u.Email), nil
	}
	return lines(fmt.Sprintf("%s (%s)", full, u.Email)), nil
}

func (d *Dispatcher) runLogout(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if !s.LoggedIn() {
		return Result{}, usagef("You are not signed in")
	}
	if d.opts.Gateway != nil {
		d.opts.Gateway.Logout()
	}
	s.SignOut()
	if d.opts.OnLogout != nil {
		d.opts.OnLogout()
	}
	return lines("Logged out successfully"), nil
}
