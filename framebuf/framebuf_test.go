// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package framebuf

import "testing"

func TestNewBounds(t *testing.T) {
	for _, tc := range []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{name: "min", w: 1, h: 1},
		{name: "max", w: MaxDimension, h: MaxDimension},
		{name: "zero width", w: 0, h: 10, wantErr: true},
		{name: "too wide", w: MaxDimension + 1, h: 10, wantErr: true},
		{name: "zero height", w: 10, h: 0, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.w, tc.h, Mono)
			if (err != nil) != tc.wantErr {
				t.Errorf("New(%d,%d) err = %v, wantErr %v", tc.w, tc.h, err, tc.wantErr)
			}
		})
	}
}

func TestWidthByteStride(t *testing.T) {
	for _, tc := range []struct {
		format Format
		width  int
		want   int
	}{
		{Mono, 1, 1},
		{Mono, 8, 1},
		{Mono, 9, 2},
		{Gray4, 1, 1},
		{Gray4, 4, 1},
		{Gray4, 5, 2},
		{Color4, 1, 1},
		{Color4, 2, 1},
		{Color4, 3, 2},
		{Color7, 800, 400},
	} {
		b, err := New(tc.width, 1, tc.format)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if b.WidthByte() != tc.want {
			t.Errorf("%v width=%d: WidthByte() = %d, want %d", tc.format, tc.width, b.WidthByte(), tc.want)
		}
		if len(b.Bytes()) != tc.want {
			t.Errorf("%v width=%d: buffer_size = %d, want %d", tc.format, tc.width, len(b.Bytes()), tc.want)
		}
	}
}

func TestSetGetPixelRoundTrip(t *testing.T) {
	for _, format := range []Format{Mono, Gray4, Color4, Color7} {
		t.Run(format.String(), func(t *testing.T) {
			const w, h = 17, 13
			b, err := New(w, h, format)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			max := b.MaxColor()
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					c := (x + y) % (max + 1)
					b.SetPixel(x, y, c)
					got, ok := b.GetPixel(x, y)
					if !ok {
						t.Fatalf("GetPixel(%d,%d) out of bounds unexpectedly", x, y)
					}
					if got != c {
						t.Errorf("GetPixel(%d,%d) = %d, want %d", x, y, got, c)
					}
				}
			}
		})
	}
}

func TestOutOfBoundsNoop(t *testing.T) {
	b, err := New(8, 8, Mono)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := append([]byte(nil), b.Bytes()...)

	b.SetPixel(-1, 0, 0)
	b.SetPixel(0, -1, 0)
	b.SetPixel(100, 0, 0)
	b.SetPixel(0, 100, 0)

	for i := range before {
		if b.Bytes()[i] != before[i] {
			t.Fatalf("out-of-bounds SetPixel mutated buffer at %d", i)
		}
	}

	if _, ok := b.GetPixel(-1, 0); ok {
		t.Error("GetPixel(-1,0) ok = true, want false")
	}
	if _, ok := b.GetPixel(100, 0); ok {
		t.Error("GetPixel(100,0) ok = true, want false")
	}
}

func TestClearThenGet(t *testing.T) {
	for _, tc := range []struct {
		format Format
		color  byte
		want   int
	}{
		{Mono, 0, 0},
		{Mono, 1, 1},
		{Gray4, 2, 2},
		{Color4, 9, 9},
		{Color7, 15, 15},
	} {
		b, err := New(5, 5, tc.format)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		b.Clear(tc.color)

		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				got, _ := b.GetPixel(x, y)
				if got != tc.want {
					t.Errorf("%v clear(%d): GetPixel(%d,%d) = %d, want %d", tc.format, tc.color, x, y, got, tc.want)
				}
			}
		}
	}
}

func TestEqual(t *testing.T) {
	a, _ := New(4, 4, Mono)
	b, _ := New(4, 4, Mono)
	if !a.Equal(b) {
		t.Fatal("identical buffers compared unequal")
	}

	b.SetPixel(0, 0, 0)
	if a.Equal(b) {
		t.Fatal("buffers with differing pixel compared equal")
	}
}
