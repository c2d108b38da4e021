package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// SelectionSessionName is the name of the selection session cookie.
const SelectionSessionName = "fabric-fusion-selection"

// Session value keys.
const (
	SessionKeyFabricID     = "fabric_id"
	SessionKeyStyleID      = "style_id"
	SessionKeyUserImageURL = "user_image_url"
)

// SelectionStore keeps the shopper's selection in a signed cookie.
type SelectionStore struct {
	store sessions.Store
}

// NewSelectionStore creates a cookie-backed selection store.
//
// The secret parameter is used to sign session cookies. It can be any
// passphrase - it will be SHA-256 hashed to derive a 32-byte key.
// The secret must be consistent across server restarts and multiple
// servers in a load-balanced deployment.
func NewSelectionStore(secret string, maxAge int, cookies CookieSettings) *SelectionStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cookies.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SelectionStore{store: store}
}

// Load returns the selection stored in the request's cookie.
// A missing or tampered cookie yields an empty selection.
func (s *SelectionStore) Load(r *http.Request) models.Selection {
	session, _ := s.store.Get(r, SelectionSessionName)
	if session == nil {
		return models.Selection{}
	}
	return models.Selection{
		FabricID:     stringValue(session.Values[SessionKeyFabricID]),
		StyleID:      stringValue(session.Values[SessionKeyStyleID]),
		UserImageURL: stringValue(session.Values[SessionKeyUserImageURL]),
	}
}

// Save writes sel to the response cookie.
func (s *SelectionStore) Save(w http.ResponseWriter, r *http.Request, sel models.Selection) error {
	session, _ := s.store.New(r, SelectionSessionName)
	session.Values[SessionKeyFabricID] = sel.FabricID
	session.Values[SessionKeyStyleID] = sel.StyleID
	session.Values[SessionKeyUserImageURL] = sel.UserImageURL
	return session.Save(r, w)
}

// Clear expires the selection cookie.
func (s *SelectionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.New(r, SelectionSessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
