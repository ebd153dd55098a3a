package binary

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/require"
)

// testSigner holds a freshly generated OpenPGP key and its exported public keyring.
type testSigner struct {
	entity      *openpgp.Entity
	armoredPath string
	binaryPath  string
}

func newTestSigner(t *testing.T, dir string) *testSigner {
	t.Helper()

	entity, err := openpgp.NewEntity("Release Signer", "test", "signer@example.test", nil)
	require.NoError(t, err)

	var armored bytes.Buffer
	w, err := armor.Encode(&armored, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())

	var raw bytes.Buffer
	require.NoError(t, entity.Serialize(&raw))

	s := &testSigner{
		entity:      entity,
		armoredPath: filepath.Join(dir, "key.asc"),
		binaryPath:  filepath.Join(dir, "key.gpg"),
	}
	writeFile(t, s.armoredPath, armored.String())
	writeFile(t, s.binaryPath, raw.String())

	return s
}

func (s *testSigner) sign(t *testing.T, content string, armored bool) []byte {
	t.Helper()

	var sig bytes.Buffer
	var err error
	if armored {
		err = openpgp.ArmoredDetachSign(&sig, s.entity, strings.NewReader(content), nil)
	} else {
		err = openpgp.DetachSign(&sig, s.entity, strings.NewReader(content), nil)
	}
	require.NoError(t, err)
	return sig.Bytes()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestVerifyGPG(t *testing.T) {
	tmpDir := t.TempDir()
	signer := newTestSigner(t, tmpDir)

	binaryPath := filepath.Join(tmpDir, "scan-github_1.0.0_Linux_x64")
	writeFile(t, binaryPath, "binary content")

	otherPath := filepath.Join(tmpDir, "other")
	writeFile(t, otherPath, "tampered content")

	armoredSig := filepath.Join(tmpDir, "bin.asc")
	writeFile(t, armoredSig, string(signer.sign(t, "binary content", true)))
	rawSig := filepath.Join(tmpDir, "bin.sig")
	writeFile(t, rawSig, string(signer.sign(t, "binary content", false)))

	tests := []struct {
		name          string
		keyFile       string
		binaryPath    string
		signaturePath string
		wantSuccess   bool
	}{
		{
			name:          "armored_signature_armored_key",
			keyFile:       signer.armoredPath,
			binaryPath:    binaryPath,
			signaturePath: armoredSig,
			wantSuccess:   true,
		},
		{
			name:          "binary_signature_binary_key",
			keyFile:       signer.binaryPath,
			binaryPath:    binaryPath,
			signaturePath: rawSig,
			wantSuccess:   true,
		},
		{
			name:          "tampered_binary",
			keyFile:       signer.armoredPath,
			binaryPath:    otherPath,
			signaturePath: armoredSig,
			wantSuccess:   false,
		},
		{
			name:          "missing_signature",
			keyFile:       signer.armoredPath,
			binaryPath:    binaryPath,
			signaturePath: filepath.Join(tmpDir, "nonexistent.asc"),
			wantSuccess:   false,
		},
		{
			name:          "missing_key",
			keyFile:       filepath.Join(tmpDir, "nokey.asc"),
			binaryPath:    binaryPath,
			signaturePath: armoredSig,
			wantSuccess:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewVerifier(VerifierConfig{GPGKeyFile: tt.keyFile})
			result, err := verifier.verifyGPG(tt.binaryPath, tt.signaturePath)

			require.NotNil(t, result)
			require.Equal(t, VerificationGPG, result.Method)
			require.Equal(t, tt.wantSuccess, result.Success)
			if tt.wantSuccess {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestVerifyGPG_WrongKey(t *testing.T) {
	tmpDir := t.TempDir()
	signer := newTestSigner(t, tmpDir)
	otherDir := filepath.Join(tmpDir, "other")
	require.NoError(t, os.MkdirAll(otherDir, 0o755))
	stranger := newTestSigner(t, otherDir)

	binaryPath := filepath.Join(tmpDir, "bin")
	writeFile(t, binaryPath, "content")
	sigPath := filepath.Join(tmpDir, "bin.asc")
	writeFile(t, sigPath, string(stranger.sign(t, "content", true)))

	verifier := NewVerifier(VerifierConfig{GPGKeyFile: signer.armoredPath})
	_, err := verifier.verifyGPG(binaryPath, sigPath)
	require.Error(t, err, "signature from unknown key must fail")
}

func TestVerifySHA256(t *testing.T) {
	tmpDir := t.TempDir()
	binaryPath := filepath.Join(tmpDir, "scan-github_1.0.0_Linux_x64")
	writeFile(t, binaryPath, "binary content")

	tests := []struct {
		name        string
		checksums   string
		wantSuccess bool
	}{
		{
			name:        "matching",
			checksums:   sha256Hex("binary content") + "  scan-github_1.0.0_Linux_x64\n",
			wantSuccess: true,
		},
		{
			name:        "uppercase_hex",
			checksums:   strings.ToUpper(sha256Hex("binary content")) + "  scan-github_1.0.0_Linux_x64\n",
			wantSuccess: true,
		},
		{
			name:        "binary_mode_marker",
			checksums:   sha256Hex("binary content") + " *scan-github_1.0.0_Linux_x64\n",
			wantSuccess: true,
		},
		{
			name: "among_other_entries",
			checksums: sha256Hex("x") + "  scan-github_1.0.0_Darwin_arm64\n" +
				sha256Hex("binary content") + "  dist/scan-github_1.0.0_Linux_x64\n",
			wantSuccess: true,
		},
		{
			name:        "mismatch",
			checksums:   sha256Hex("other") + "  scan-github_1.0.0_Linux_x64\n",
			wantSuccess: false,
		},
		{
			name:        "missing_entry",
			checksums:   sha256Hex("binary content") + "  scan-github_1.0.0_Linux_arm64\n",
			wantSuccess: false,
		},
		{
			name:        "malformed",
			checksums:   "garbage\n\n",
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checksumPath := filepath.Join(t.TempDir(), "checksums.txt")
			writeFile(t, checksumPath, tt.checksums)

			result, err := NewVerifier(VerifierConfig{}).verifySHA256(binaryPath, checksumPath, "scan-github_1.0.0_Linux_x64")
			require.NotNil(t, result)
			require.Equal(t, VerificationSHA256, result.Method)
			require.Equal(t, tt.wantSuccess, err == nil, "err = %v", err)
			require.Equal(t, tt.wantSuccess, result.Success)
		})
	}
}

func TestVerifySigstore_InvalidBundle(t *testing.T) {
	tmpDir := t.TempDir()
	binaryPath := filepath.Join(tmpDir, "bin")
	writeFile(t, binaryPath, "content")
	bundlePath := filepath.Join(tmpDir, "bin.sigstore.json")
	writeFile(t, bundlePath, `{"mediaType": "not a bundle"}`)

	verifier := NewVerifier(VerifierConfig{})
	result, err := verifier.verifySigstore(binaryPath, bundlePath)
	require.Error(t, err)
	require.Equal(t, VerificationSigstore, result.Method)
	require.False(t, result.Success)
}

func TestVerifyFile_MethodSelection(t *testing.T) {
	tmpDir := t.TempDir()
	signer := newTestSigner(t, tmpDir)

	asset := "scan-github_1.0.0_Linux_x64"
	binaryPath := filepath.Join(tmpDir, asset)
	writeFile(t, binaryPath, "binary content")

	sigPath := filepath.Join(tmpDir, asset+".asc")
	writeFile(t, sigPath, string(signer.sign(t, "binary content", true)))
	checksumPath := filepath.Join(tmpDir, "checksums.txt")
	writeFile(t, checksumPath, sha256Hex("binary content")+"  "+asset+"\n")
	bundlePath := filepath.Join(tmpDir, asset+".sigstore.json")
	writeFile(t, bundlePath, "{}")

	tests := []struct {
		name       string
		keyFile    string
		companions Companions
		wantMethod VerificationMethod
		wantErr    bool
	}{
		{
			name:       "nothing_published",
			wantMethod: VerificationNone,
		},
		{
			name:       "checksum_only",
			companions: Companions{ChecksumPath: checksumPath},
			wantMethod: VerificationSHA256,
		},
		{
			name:       "signature_preferred_over_checksum",
			keyFile:    signer.armoredPath,
			companions: Companions{SignaturePath: sigPath, ChecksumPath: checksumPath},
			wantMethod: VerificationGPG,
		},
		{
			name:       "signature_ignored_without_key",
			companions: Companions{SignaturePath: sigPath, ChecksumPath: checksumPath},
			wantMethod: VerificationSHA256,
		},
		{
			name:       "bundle_preferred_and_failing",
			keyFile:    signer.armoredPath,
			companions: Companions{BundlePath: bundlePath, SignaturePath: sigPath, ChecksumPath: checksumPath},
			wantMethod: VerificationSigstore,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewVerifier(VerifierConfig{GPGKeyFile: tt.keyFile})
			result, err := verifier.VerifyFile(context.Background(), binaryPath, asset, tt.companions)

			require.NotNil(t, result)
			require.Equal(t, tt.wantMethod, result.Method)
			if tt.wantErr {
				require.ErrorContains(t, err, asset)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadKeyring(t *testing.T) {
	tmpDir := t.TempDir()
	signer := newTestSigner(t, tmpDir)

	for _, path := range []string{signer.armoredPath, signer.binaryPath} {
		keyring, err := loadKeyring(path)
		require.NoError(t, err, path)
		require.Len(t, keyring, 1)
	}

	garbage := filepath.Join(tmpDir, "garbage")
	writeFile(t, garbage, "not a key")
	_, err := loadKeyring(garbage)
	require.Error(t, err)
}

func TestVerificationMethodString(t *testing.T) {
	tests := []struct {
		method VerificationMethod
		want   string
	}{
		{VerificationNone, "None"},
		{VerificationSHA256, "SHA256"},
		{VerificationGPG, "GPG"},
		{VerificationSigstore, "Sigstore"},
		{VerificationMethod(99), "Unknown"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.method.String())
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyAuto, false},
		{"auto", PolicyAuto, false},
		{"REQUIRED", PolicyRequired, false},
		{" none ", PolicyNone, false},
		{"sometimes", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		require.Equal(t, tt.wantErr, err != nil, "ParsePolicy(%q) err = %v", tt.in, err)
		require.Equal(t, tt.want, got, "ParsePolicy(%q)", tt.in)
	}
}

func TestCalculateSHA256_NonExistentFile(t *testing.T) {
	_, err := calculateSHA256(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
