// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"
)

// FlashCookie is the name of the cookie carrying the one-shot message.
const FlashCookie = "flash"

// MaxFlashBytes bounds a flash message so the signed cookie stays under
// the 4 KiB browsers accept.
const MaxFlashBytes = 2048

// Flash types.
const (
	FlashError   = "error"
	FlashSuccess = "success"
)

type contextKey string

const flashKey contextKey = "docxify_flash"

// FlashMessage is a one-time notification shown on the next page view.
type FlashMessage struct {
	Type    string
	Message string
}

// GetFlash returns the flash message stored in ctx by Flasher.Middleware,
// or nil.
func GetFlash(ctx context.Context) *FlashMessage {
	v, _ := ctx.Value(flashKey).(*FlashMessage)
	return v
}

// Flasher signs and verifies flash cookies with an HMAC-SHA256 key, so a
// client cannot plant arbitrary text on the form page.
type Flasher struct {
	key    []byte
	maxAge int
}

// NewFlasher returns a Flasher signing with key.
func NewFlasher(key []byte) *Flasher {
	return &Flasher{key: key, maxAge: 60}
}

// Set stores a flash message in a signed cookie. Messages longer than
// MaxFlashBytes are cut short.
func (f *Flasher) Set(w http.ResponseWriter, flashType, message string) {
	message = truncate(message, MaxFlashBytes)
	payload := base64.RawURLEncoding.EncodeToString([]byte(flashType + ":" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    payload + "." + f.sign(payload),
		Path:     "/",
		MaxAge:   f.maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Redirect sets a flash message and redirects to url with 303 See Other.
func (f *Flasher) Redirect(w http.ResponseWriter, r *http.Request, url, flashType, message string) {
	f.Set(w, flashType, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Middleware reads the flash cookie, stores the verified message in the
// request context and clears the cookie. Tampered cookies are dropped.
func (f *Flasher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(FlashCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: FlashCookie, MaxAge: -1, Path: "/"})

		msg, ok := f.decode(cookie.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), flashKey, msg)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (f *Flasher) decode(value string) (*FlashMessage, bool) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(f.sign(payload))) {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}

	flash := &FlashMessage{Type: FlashError, Message: string(raw)}
	if after, ok := strings.CutPrefix(flash.Message, FlashSuccess+":"); ok {
		flash.Type = FlashSuccess
		flash.Message = after
	} else if after, ok := strings.CutPrefix(flash.Message, FlashError+":"); ok {
		flash.Message = after
	}
	return flash, true
}

func (f *Flasher) sign(payload string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
