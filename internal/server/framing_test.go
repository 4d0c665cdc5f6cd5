package server

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func TestLineReader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		max     int
		want    []string
		wantErr error
	}{
		{name: "single line", in: "BLEED\n", want: []string{"BLEED"}, wantErr: io.EOF},
		{name: "crlf stripped", in: "JOIN #x\r\n", want: []string{"JOIN #x"}, wantErr: io.EOF},
		{name: "several lines", in: "a\nb\n\nc\n", want: []string{"a", "b", "", "c"}, wantErr: io.EOF},
		{name: "closed mid line", in: "JOIN #x", wantErr: io.ErrUnexpectedEOF},
		{name: "empty stream", in: "", wantErr: io.EOF},
		{name: "exactly at cap", in: strings.Repeat("a", 1024) + "\n", want: []string{strings.Repeat("a", 1024)}, wantErr: io.EOF},
		{name: "over cap without terminator", in: strings.Repeat("a", 1025), wantErr: ErrLineTooLong},
		{name: "over cap with terminator", in: strings.Repeat("a", 1025) + "\n", wantErr: ErrLineTooLong},
		{name: "small cap", in: "abcdef\nabcdefghijklmnopqrstuvwxyz\n", max: 8, want: []string{"abcdef"}, wantErr: ErrLineTooLong},
		{name: "small cap without terminator", in: "abcdefghijkl", max: 8, wantErr: ErrLineTooLong},
		{name: "small cap with crlf", in: "abcdefg\r\nabcdefghi\n", max: 8, want: []string{"abcdefg"}, wantErr: ErrLineTooLong},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lr := NewLineReader(strings.NewReader(tc.in), tc.max)
			var got []string
			var err error
			for {
				var line []byte
				line, err = lr.ReadLine()
				if err != nil {
					break
				}
				got = append(got, string(line))
			}

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("final err=%v want=%v", err, tc.wantErr)
			}
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("lines=%q want=%q", got, tc.want)
			}
		})
	}
}

func TestLineReaderAccumulatesPartialReads(t *testing.T) {
	t.Parallel()

	lr := NewLineReader(iotest.OneByteReader(strings.NewReader("MSG a #x hello world\n")), 0)
	line, err := lr.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine() err=%v", err)
	}
	if string(line) != "MSG a #x hello world" {
		t.Fatalf("ReadLine()=%q", line)
	}
}

func TestLineReaderReturnsOwnedSlices(t *testing.T) {
	t.Parallel()

	lr := NewLineReader(strings.NewReader("first\nsecond\n"), 0)
	first, _ := lr.ReadLine()
	if _, err := lr.ReadLine(); err != nil {
		t.Fatalf("ReadLine() err=%v", err)
	}
	if string(first) != "first" {
		t.Fatalf("first line changed to %q after next read", first)
	}
}

func TestLineReaderRejectsUnterminatedLineWithoutWaiting(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	go func() { _, _ = pw.Write([]byte("abcdefghijkl")) }()

	result := make(chan error, 1)
	go func() {
		_, err := NewLineReader(pr, 8).ReadLine()
		result <- err
	}()

	select {
	case err := <-result:
		if !errors.Is(err, ErrLineTooLong) {
			t.Fatalf("ReadLine() err=%v want=%v", err, ErrLineTooLong)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine blocked on an over-cap line while the peer stayed open")
	}
}

func TestLineReaderKeepsRemainderAcrossCalls(t *testing.T) {
	t.Parallel()

	lr := NewLineReader(iotest.HalfReader(strings.NewReader("JOIN #a\nPART #a\nBLEED\n")), 8)
	for _, want := range []string{"JOIN #a", "PART #a", "BLEED"} {
		line, err := lr.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() err=%v", err)
		}
		if string(line) != want {
			t.Fatalf("ReadLine()=%q want=%q", line, want)
		}
	}
	if _, err := lr.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("final err=%v want=%v", err, io.EOF)
	}
}
