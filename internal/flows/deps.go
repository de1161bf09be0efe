package flows

// Deps groups flow dependency sets. The root client builds this once and
// delegates lifecycle methods to the matching flow.
type Deps struct {
	SignIn    SignInDeps
	Reconnect SignInDeps
	Validate  ValidateDeps
	Refresh   RefreshDeps
	Logout    LogoutDeps
	Restore   RestoreDeps
}
