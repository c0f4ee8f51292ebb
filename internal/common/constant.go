package common

// AccessTokenHeaderName is the HTTP header used to carry the access token on
// outbound requests, in the form "Bearer <token>".
const AccessTokenHeaderName = "Authorization"
