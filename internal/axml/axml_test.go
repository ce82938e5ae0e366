package axml

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdata/manifest.axml is the real aapt-produced binary XML for the
// Go-mobile "balloon" sample's AndroidManifest.xml, the one ground-truth
// fixture available for this format, so the decoder is tested against it
// directly rather than against a hand-rolled blob.
func loadFixture(t *testing.T) *Document {
	t.Helper()
	data, err := os.ReadFile("testdata/manifest.axml")
	require.NoError(t, err)
	doc, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return doc
}

func TestDecodeManifest(t *testing.T) {
	doc := loadFixture(t)
	require.NotNil(t, doc.Root)

	root := doc.Root
	assert.Equal(t, "manifest", root.Name)

	pkg, ok := root.Attr("", "package")
	require.True(t, ok)
	assert.Equal(t, "com.zentus.balloon", pkg.RawValue)

	versionCode, ok := root.Attr("http://schemas.android.com/apk/res/android", "versionCode")
	require.True(t, ok)
	assert.Equal(t, AttrTypeIntDec, versionCode.Type)
	assert.Equal(t, int32(1), versionCode.IntValue())

	versionName, ok := root.Attr("http://schemas.android.com/apk/res/android", "versionName")
	require.True(t, ok)
	assert.Equal(t, "1.0", versionName.RawValue)
}

func TestDecodeUsesSDK(t *testing.T) {
	doc := loadFixture(t)
	usesSDK := doc.Root.ChildrenNamed("uses-sdk")
	require.Len(t, usesSDK, 1)

	minSDK, ok := usesSDK[0].Attr("", "minSdkVersion")
	require.True(t, ok)
	assert.Equal(t, int32(9), minSDK.IntValue())
}

func TestDecodeRejectsUnbalancedStream(t *testing.T) {
	data, err := os.ReadFile("testdata/manifest.axml")
	require.NoError(t, err)
	// Truncate mid-element so the element stack can't close; the decoder
	// must reject rather than silently return a partial tree.
	_, err = Decode(bytes.NewReader(data[:len(data)-40]))
	assert.Error(t, err)
}
