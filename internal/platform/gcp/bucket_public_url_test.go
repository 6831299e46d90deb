package gcp

import "testing"

func TestResolveObjectStoragePublicBaseURL(t *testing.T) {
	base, source, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{Mode: ObjectStorageModeGCS}, "")
	if err != nil || base != "" || source != "gcs_default" {
		t.Fatalf("gcs default: base=%q source=%q err=%v", base, source, err)
	}

	base, source, err = resolveObjectStoragePublicBaseURL(ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		EmulatorHost: "http://fake-gcs:4443/",
	}, "")
	if err != nil || base != "http://fake-gcs:4443" || source != "storage_emulator_host" {
		t.Fatalf("emulator fallback: base=%q source=%q err=%v", base, source, err)
	}

	base, source, err = resolveObjectStoragePublicBaseURL(ObjectStorageConfig{Mode: ObjectStorageModeGCS}, "http://localhost:4443/")
	if err != nil || base != "http://localhost:4443" || source != "object_storage_public_base_url" {
		t.Fatalf("override: base=%q source=%q err=%v", base, source, err)
	}

	if _, _, err := resolveObjectStoragePublicBaseURL(ObjectStorageConfig{Mode: ObjectStorageModeGCS}, "localhost"); err == nil {
		t.Fatalf("relative override: expected error")
	}
}

func TestPublicURL(t *testing.T) {
	cfg := bucketConfig{name: "iof-images"}
	if got := publicURL(ObjectStorageModeGCS, "", cfg, "/certificates/IOF-0A1B2C3D.png"); got != "https://storage.googleapis.com/iof-images/certificates/IOF-0A1B2C3D.png" {
		t.Fatalf("gcs url: got=%q", got)
	}
	if got := publicURL(ObjectStorageModeGCS, "", bucketConfig{name: "b", cdnDomain: "cdn.example.com"}, "a.png"); got != "https://cdn.example.com/a.png" {
		t.Fatalf("cdn url: got=%q", got)
	}
	want := "http://fake-gcs:4443/storage/v1/b/iof-images/o/covers%2Fa.png?alt=media"
	if got := publicURL(ObjectStorageModeGCSEmulator, "http://fake-gcs:4443", cfg, "covers/a.png"); got != want {
		t.Fatalf("emulator url: want=%q got=%q", want, got)
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := ContentTypeForKey("certificates/IOF-1.PNG"); got != "image/png" {
		t.Fatalf("png: got=%q", got)
	}
	if got := ContentTypeForKey("certificates/IOF-1.pdf?x=1"); got != "application/pdf" {
		t.Fatalf("pdf: got=%q", got)
	}
	if got := ContentTypeForKey("notes.txt"); got != "" {
		t.Fatalf("unknown: got=%q", got)
	}
}
