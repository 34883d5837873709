package lobby

// invitations is the pending invitation relation. A responder holds at most
// one invitation and, since sessions carry a single state, so does an inviter.
type invitations struct {
	byResponder map[string]string
	byInviter   map[string]string
}

func newInvitations() *invitations {
	return &invitations{
		byResponder: make(map[string]string),
		byInviter:   make(map[string]string),
	}
}

func (iv *invitations) add(inviter, responder string) {
	iv.byResponder[responder] = inviter
	iv.byInviter[inviter] = responder
}

func (iv *invitations) inviterOf(responder string) (string, bool) {
	inviter, ok := iv.byResponder[responder]
	return inviter, ok
}

func (iv *invitations) responderOf(inviter string) (string, bool) {
	responder, ok := iv.byInviter[inviter]
	return responder, ok
}

func (iv *invitations) remove(inviter, responder string) {
	delete(iv.byResponder, responder)
	delete(iv.byInviter, inviter)
}

func (iv *invitations) len() int { return len(iv.byResponder) }
