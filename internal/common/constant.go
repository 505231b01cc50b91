package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer access
// token on outbound API requests.
const AuthorizationHeaderName = "Authorization"

// ClientHeaderName carries the per-process client id so the server can omit
// the sender from push fan-out.
const ClientHeaderName = "X-Boardsync-Client"
