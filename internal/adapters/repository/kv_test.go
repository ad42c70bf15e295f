package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func kvContract(ctx context.Context, kv KV) {
	Convey("When reading a missing key", func() {
		v, ok, err := kv.Get(ctx, "missing")

		Convey("Then it should report absence without error", func() {
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(v, ShouldBeNil)
		})
	})

	Convey("When writing a key twice", func() {
		So(kv.Put(ctx, KeyPredictions, []byte(`[1]`)), ShouldBeNil)
		So(kv.Put(ctx, KeyPredictions, []byte(`[1,2]`)), ShouldBeNil)

		Convey("Then the last value should win", func() {
			v, ok, err := kv.Get(ctx, KeyPredictions)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(string(v), ShouldEqual, `[1,2]`)
		})
	})
}

func TestMemoryKV(t *testing.T) {
	Convey("Given an in-memory KV", t, func() {
		ctx := context.Background()
		kv := NewMemoryKV()
		kvContract(ctx, kv)

		Convey("When the caller mutates a returned value", func() {
			So(kv.Put(ctx, "k", []byte("abc")), ShouldBeNil)
			v, _, _ := kv.Get(ctx, "k")
			v[0] = 'z'

			Convey("Then the stored value should be unchanged", func() {
				again, _, _ := kv.Get(ctx, "k")
				So(string(again), ShouldEqual, "abc")
			})
		})

		Convey("When closed", func() {
			So(kv.Close(), ShouldBeNil)

			Convey("Then operations should fail with ErrClosed", func() {
				_, _, err := kv.Get(ctx, "k")
				So(errors.Is(err, ErrClosed), ShouldBeTrue)
				So(errors.Is(kv.Put(ctx, "k", nil), ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestSQLiteKV(t *testing.T) {
	Convey("Given a SQLite KV in a temp directory", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "kv.db")
		kv, err := NewSQLiteKV(ctx, path)
		So(err, ShouldBeNil)
		Reset(func() { _ = kv.Close() })

		kvContract(ctx, kv)

		Convey("When the database is reopened", func() {
			So(kv.Put(ctx, KeyActivityLogs, []byte(`[]`)), ShouldBeNil)
			So(kv.Close(), ShouldBeNil)

			reopened, err := NewSQLiteKV(ctx, path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then values should survive", func() {
				v, ok, err := reopened.Get(ctx, KeyActivityLogs)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, `[]`)
			})
		})
	})
}
