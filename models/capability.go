package models

// ActorCapabilities is the acting user's capability set, evaluated once per
// request by the surrounding application and passed immutably into workflow
// calls. The workflow never reaches into ambient permission state.
type ActorCapabilities struct {
	Actor           string
	CanManageEvents bool
	CanApprove      bool
}
