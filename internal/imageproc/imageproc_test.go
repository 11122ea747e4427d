package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func makeImage(t *testing.T, w, h int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 0, 255})
		}
	}
	return img
}

func encodePNGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeValidImage(t *testing.T) {
	data := encodePNGBytes(t, makeImage(t, 40, 30))

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 40 || got.Dy() != 30 {
		t.Errorf("got %dx%d, want 40x30", got.Dx(), got.Dy())
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Fatal("expected error for garbage bytes")
	} else if err != ErrUndecodable {
		t.Errorf("got %v, want ErrUndecodable", err)
	}
}

func TestFitWithinUnderCapUnchanged(t *testing.T) {
	img := makeImage(t, 200, 100)

	out := FitWithin(img, 1200)

	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("under-cap image resized to %dx%d, want 200x100", b.Dx(), b.Dy())
	}
}

func TestFitWithinExactCapUnchanged(t *testing.T) {
	img := makeImage(t, 1200, 600)

	out := FitWithin(img, 1200)

	if b := out.Bounds(); b.Dx() != 1200 || b.Dy() != 600 {
		t.Errorf("at-cap image resized to %dx%d, want 1200x600", b.Dx(), b.Dy())
	}
}

func TestFitWithinLandscape(t *testing.T) {
	img := makeImage(t, 300, 100)

	out := FitWithin(img, 150)

	if b := out.Bounds(); b.Dx() != 150 || b.Dy() != 50 {
		t.Errorf("got %dx%d, want 150x50", b.Dx(), b.Dy())
	}
}

func TestFitWithinPortrait(t *testing.T) {
	img := makeImage(t, 100, 300)

	out := FitWithin(img, 150)

	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 150 {
		t.Errorf("got %dx%d, want 50x150", b.Dx(), b.Dy())
	}
}

func TestFitWithinPreservesAspectRatio(t *testing.T) {
	cases := []struct{ w, h, cap int }{
		{1234, 567, 800},
		{567, 1234, 800},
		{1920, 1080, 1200},
		{3000, 3000, 1200},
	}

	for _, tc := range cases {
		out := FitWithin(makeImage(t, tc.w, tc.h), tc.cap)
		b := out.Bounds()

		longer := b.Dx()
		if b.Dy() > longer {
			longer = b.Dy()
		}
		if longer != tc.cap {
			t.Errorf("%dx%d cap %d: longer side is %d, want %d", tc.w, tc.h, tc.cap, longer, tc.cap)
		}
		if b.Dx() > tc.cap || b.Dy() > tc.cap {
			t.Errorf("%dx%d cap %d: processed %dx%d exceeds cap", tc.w, tc.h, tc.cap, b.Dx(), b.Dy())
		}

		want := float64(tc.w) / float64(tc.h)
		got := float64(b.Dx()) / float64(b.Dy())
		if diff := want - got; diff > 0.02 || diff < -0.02 {
			t.Errorf("%dx%d cap %d: aspect ratio %f, want %f", tc.w, tc.h, tc.cap, got, want)
		}
	}
}

func TestFitWithinNonPositiveCap(t *testing.T) {
	img := makeImage(t, 500, 500)

	if b := FitWithin(img, 0).Bounds(); b.Dx() != 500 || b.Dy() != 500 {
		t.Errorf("zero cap resized image to %dx%d", b.Dx(), b.Dy())
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	img := makeImage(t, 64, 48)

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode encoded frame: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("round trip changed dims to %dx%d", b.Dx(), b.Dy())
	}
}
