package models

import "strings"

// Storage keys. The values are plain strings or JSON documents.
const (
	KeySessionFlag      = "isLogin"
	KeyUsername         = "username"
	KeyPassword         = "password"
	KeyUserID           = "userID"
	KeyRememberMe       = "rememberMe"
	KeyRememberedEmail  = "rememberedEmail"
	KeyKakaoUserID      = "kakaoUserID"
	KeyKakaoUserName    = "kakaoUserName"
	KeyKakaoUserEmail   = "kakaoUserEmail"
	KeyKakaoAccessToken = "kakaoAccessToken"
	KeyWishlist         = "wishlist"
	KeySearchHistory    = "searchHistory"
)

// Profile identifies the signed-in user.
type Profile struct {
	ID    string
	Name  string
	Email string
}

// DisplayName is the part of the name shown in the header.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	name, _, _ := strings.Cut(p.Email, "@")
	return name
}

// Route names a view.
type Route string

const (
	RouteHome     Route = "/"
	RouteSignin   Route = "/signin"
	RoutePopular  Route = "/popular"
	RouteSearch   Route = "/search"
	RouteWishlist Route = "/wishlist"
)

// Protected reports whether the route requires a session.
func (r Route) Protected() bool {
	return r != RouteSignin
}
