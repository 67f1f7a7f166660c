package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// MaxNameLength is the longest entry name accepted, in bytes.
const MaxNameLength = 255
