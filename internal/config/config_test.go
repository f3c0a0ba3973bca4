package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("LoadOrCreate() = %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second LoadOrCreate() error = %v", err)
	}
	if again != cfg {
		t.Errorf("reload = %+v, want %+v", again, cfg)
	}
}

func TestDecodeFillsDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
		want func(Config) bool
	}{
		{
			name: "empty",
			data: "",
			want: func(c Config) bool { return c == Default() },
		},
		{
			name: "partial",
			data: "db_path = \"tasks.db\"\nnotify = false\n[keys]\nquit = \"q\"\n",
			want: func(c Config) bool {
				return c.DBPath == "tasks.db" && !c.Notify && c.Keys.Quit == "q" &&
					c.Keys.Submit == "enter" && c.OverdueInterval == "1s"
			},
		},
		{
			name: "blank db path",
			data: "db_path = \"\"\n",
			want: func(c Config) bool { return c.DBPath == DefaultDBName },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !tt.want(cfg) {
				t.Errorf("Decode() = %+v", cfg)
			}
		})
	}
}

func TestDecodeRejectsBadTOML(t *testing.T) {
	if _, err := Decode([]byte("db_path = ")); err == nil {
		t.Error("Decode() should fail on malformed TOML")
	}
}

func TestEncodeDecodeKeepsEveryField(t *testing.T) {
	cfg := Config{
		DBPath:          "/tmp/x.db",
		LogFile:         "x.log",
		LogLevel:        "debug",
		LogFormat:       "json",
		OverdueInterval: "30s",
		Notify:          false,
		Keys:            Keymap{Quit: "q", Submit: "ctrl+s", Clear: "ctrl+u"},
	}
	data, err := Encode(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("Decode(Encode()) = %+v, want %+v", got, cfg)
	}
}

func TestScanInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1s", want: time.Second},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "0s", wantErr: true},
		{in: "-1s", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Config{OverdueInterval: tt.in}.ScanInterval()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ScanInterval() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ScanInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveConfigPathHonorsEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/somewhere/config.toml")
	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != "/somewhere/config.toml" {
		t.Errorf("ResolveConfigPath() = %q", got)
	}
}

func TestResolvePath(t *testing.T) {
	cfgPath := filepath.Join("/home", "me", "simply", "config.toml")
	tests := []struct {
		in, want string
	}{
		{in: "simply.db", want: filepath.Join("/home", "me", "simply", "simply.db")},
		{in: "/var/simply.db", want: "/var/simply.db"},
		{in: "file:memdb?mode=memory", want: "file:memdb?mode=memory"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := ResolvePath(cfgPath, tt.in); got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
