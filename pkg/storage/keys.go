package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// userPhotoPrefix holds every user uploaded photo, one folder per user.
const userPhotoPrefix = "user-photos"

// FabricImageKey returns the object key for a fabric's image: the fabric id
// followed by the original file extension. Re-uploading reuses the key.
func FabricImageKey(fabricID uuid.UUID, filename string) string {
	return fabricID.String() + Extension(filename)
}

// UserPhotoKey returns a fresh object key for a photo uploaded by userID.
func UserPhotoKey(userID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s%s", userPhotoPrefix, userID, uuid.New(), Extension(filename))
}

// KeyFromURL recovers the object key from a public URL produced by PublicObjectURL.
// Returns "" when the URL does not point into bucket.
func KeyFromURL(publicURL, bucket string) string {
	marker := "/" + bucket + "/"
	idx := strings.Index(publicURL, marker)
	if idx < 0 {
		return ""
	}
	return publicURL[idx+len(marker):]
}

// Extension returns the lower-cased extension of filename including the dot.
func Extension(filename string) string {
	return strings.ToLower(path.Ext(filename))
}
