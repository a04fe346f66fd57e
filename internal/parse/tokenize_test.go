package parse

import "testing"

func TestTokenizeAlignment(t *testing.T) {
	inputs := []string{
		"",
		"no timestamps at all",
		"header line\n12/05/23, 14:05 - Alice: Hi\n",
		"12/05/23, 14:05 - Alice: Hi\n1/5/2023, 9:7 - Bob: a\nb\n12/05/23, 14:999 - broken",
		"12/05/23, 14:05 - \n12/05/23, 14:06 - ",
	}
	for _, in := range inputs {
		stamps, bodies := Split(in)
		if len(stamps) != len(bodies) {
			t.Errorf("Split(%q): %d timestamps, %d bodies", in, len(stamps), len(bodies))
		}
	}
}

func TestTokenizeDropsPreamble(t *testing.T) {
	text := "Exported chat\nWhatsApp\n12/05/23, 14:05 - Alice: Hi there\n12/05/23, 14:06 - Bob: Hello!"
	entries := Tokenize(text)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Timestamp != "12/05/23, 14:05 -" {
		t.Errorf("timestamp = %q", entries[0].Timestamp)
	}
	if entries[0].Body != "Alice: Hi there" {
		t.Errorf("body = %q", entries[0].Body)
	}
	if entries[0].Line != 3 || entries[1].Line != 4 {
		t.Errorf("lines = %d, %d; want 3, 4", entries[0].Line, entries[1].Line)
	}
}

func TestTokenizeMalformedTimestampStaysInBody(t *testing.T) {
	text := "12/05/23, 14:05 - Alice: first\n12/05/23, 14:123 - Bob: not a message\n12/05/23, 14:06 - Bob: second"
	entries := Tokenize(text)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	want := "Alice: first\n12/05/23, 14:123 - Bob: not a message"
	if entries[0].Body != want {
		t.Errorf("body = %q, want %q", entries[0].Body, want)
	}
	if entries[1].Line != 3 {
		t.Errorf("line = %d, want 3", entries[1].Line)
	}
}

func TestTokenizeMultilineBody(t *testing.T) {
	text := "12/05/23, 14:05 - Alice: one\ntwo\r\n12/05/23, 14:06 - Bob: three\n"
	entries := Tokenize(text)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Body != "Alice: one\ntwo" {
		t.Errorf("body[0] = %q", entries[0].Body)
	}
	if entries[1].Body != "Bob: three" {
		t.Errorf("body[1] = %q", entries[1].Body)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if entries := Tokenize("just some text\nwithout stamps"); len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
