package services

import "errors"

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrUserNotFound indicates the user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthenticated indicates the request carries no caller identity
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the caller is not an administrator
	ErrForbidden = errors.New("access denied")

	// ErrCannotDeleteSelf indicates an administrator tried to delete their own account
	ErrCannotDeleteSelf = errors.New("cannot delete own account")

	// ErrInvalidCredentials indicates authentication failed
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified indicates login requires a verified email address
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrEventNotFound indicates the event does not exist
	ErrEventNotFound = errors.New("event not found")

	// ErrEventInPast indicates registration was attempted for an event that already started
	ErrEventInPast = errors.New("event already started")

	// ErrEventFull indicates the event has no free places
	ErrEventFull = errors.New("event is full")

	// ErrAlreadyRegistered indicates the user is already registered for the event
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrNotRegistered indicates the user holds no registration for the event
	ErrNotRegistered = errors.New("not registered")

	// ErrInvalidSignature indicates a signed link was tampered with or expired
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidVerificationLink indicates the email hash in a verification link does not match
	ErrInvalidVerificationLink = errors.New("invalid verification link")

	// ErrTokenInvalid indicates a session or API token failed validation
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenRevoked indicates an API token was logged out or expired server-side
	ErrTokenRevoked = errors.New("token revoked")
)

// User-facing messages
const (
	MsgAccessDenied        = "Hozzáférés megtagadva. Csak adminok számára elérhető."
	MsgUserCreated         = "Felhasználó sikeresen létrehozva."
	MsgUserUpdated         = "Felhasználó sikeresen frissítve."
	MsgUserDeleted         = "Felhasználó sikeresen törölve."
	MsgCannotDelete        = "Nem törölheted a saját fiókodat."
	MsgInvalidLogin        = "Hibás e-mail cím vagy jelszó."
	MsgValidation          = "A megadott adatok érvénytelenek."
	MsgEventFull           = "Az esemény betelt."
	MsgAlreadyJoined       = "Már regisztráltál erre az eseményre."
	MsgEventStarted        = "Az esemény már elkezdődött."
	MsgNotRegistered       = "Nem vagy regisztrálva erre az eseményre."
	MsgRegistered          = "Sikeres regisztráció az eseményre."
	MsgUnregistered        = "Regisztráció visszavonva."
	MsgEventDeleted        = "Esemény sikeresen törölve."
	MsgLoggedOut           = "Sikeres kijelentkezés."
	MsgUnauthenticated     = "Bejelentkezés szükséges."
	MsgEmailNotVerified    = "Az e-mail címed még nincs megerősítve."
	MsgNotFound            = "A keresett elem nem található."
	MsgServerError         = "Váratlan hiba történt. Kérjük, próbáld újra később."
	MsgInvalidRequest      = "Érvénytelen kérés."
	MsgAPIAlive            = "API működik"
	MsgEmailVerified       = "Email verified successfully. You can now log in."
	MsgAlreadyVerified     = "Email already verified."
	MsgInvalidSignature    = "Invalid signature."
	MsgInvalidVerification = "Invalid verification link."
)
