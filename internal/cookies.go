package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "civicsnap_access_token"
)
