package statuscheck

import (
	"context"
	"errors"
	"testing"

	"github.com/local/pdfsplit/internal/render"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestCheckRedis(t *testing.T) {
	c := New(Options{Redis: fakePinger{}})
	if st := c.checkRedis(context.Background()); !st.OK {
		t.Errorf("healthy ping reported %+v", st)
	}

	c = New(Options{Redis: fakePinger{err: errors.New("refused")}})
	if st := c.checkRedis(context.Background()); st.OK {
		t.Error("failed ping reported ok")
	}

	c = New(Options{})
	if st := c.checkRedis(context.Background()); st.OK {
		t.Error("missing redis reported ok")
	}
}

func TestCheckRenderer(t *testing.T) {
	if st := New(Options{Renderer: render.Unavailable{}}).checkRenderer(); st.OK {
		t.Error("unavailable renderer reported ok")
	}
	if st := New(Options{Renderer: render.FitzRenderer{}}).checkRenderer(); !st.OK {
		t.Error("available renderer reported not ok")
	}
	if st := New(Options{}).checkRenderer(); st.OK {
		t.Error("nil renderer reported ok")
	}
}

func TestCheckS3NotConfigured(t *testing.T) {
	if st := New(Options{}).checkS3(context.Background()); st.OK {
		t.Error("missing bucket reported ok")
	}
}
