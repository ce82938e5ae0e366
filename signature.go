package apk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/avast/apkverifier"
)

// verifySigner authenticates the APK's signing certificate and returns its
// SHA-256 fingerprint, hex-encoded. Grounded on the same
// Verify/PickBestApkCert pair the pack's own APK tooling uses to authenticate
// a package before trusting its contents.
func verifySigner(path string) (string, error) {
	res, err := apkverifier.Verify(path, nil)
	if err != nil {
		return "", fmt.Errorf("apk verification failed: %w", err)
	}

	_, cert := apkverifier.PickBestApkCert(res.SignerCerts)
	if cert == nil {
		return "", fmt.Errorf("no valid signer certificate found")
	}

	fingerprint := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(fingerprint[:]), nil
}
