package storage

import "testing"

func TestParseURI(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "gs://bucket/a/b.png", want: Location{Scheme: "gs", Bucket: "bucket", Object: "a/b.png"}},
		{in: " s3://media/x.mp4 ", want: Location{Scheme: "s3", Bucket: "media", Object: "x.mp4"}},
		{in: "bucket/a.png", wantErr: true},
		{in: "gs://bucket", wantErr: true},
		{in: "gs://bucket/", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseURI(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %+v got %+v", tc.in, tc.want, got)
		}
		if got.String() != tc.want.String() {
			t.Fatalf("%q: string round trip mismatch %s", tc.in, got.String())
		}
	}
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	if got := JoinPath("/generated/", "", "abc", "0.png"); got != "generated/abc/0.png" {
		t.Fatalf("unexpected path %q", got)
	}
}
