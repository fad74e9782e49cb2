// Package config loads pickup checker configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/browser"
	"github.com/JakeFAU/pickup-checker/internal/logging"
	"github.com/JakeFAU/pickup-checker/internal/notify"
	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/spf13/viper"
)

// Defaults shared with the legacy environment contract.
const (
	DefaultProductURL = "https://www.apple.com/shop/buy-iphone/iphone-17-pro/6.9-inch-display-256gb-deep-blue-unlocked"
	DefaultZip        = "33172"
	DefaultPartNotes  = "iPhone 17 Pro Max 256GB (any color)"
	DefaultTimeZone   = "America/Tegucigalpa"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Check    CheckConfig    `mapstructure:"check"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Timing   TimingConfig   `mapstructure:"timing"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CheckConfig describes what is being checked.
type CheckConfig struct {
	ProductURL string   `mapstructure:"product_url"`
	ZipCodes   []string `mapstructure:"zip_codes"`
	PartNotes  string   `mapstructure:"part_notes"`
	LocalTZ    string   `mapstructure:"local_tz"`
}

// BrowserConfig configures the headless Chrome session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	ExecPath          string        `mapstructure:"exec_path"`
	UserAgent         string        `mapstructure:"user_agent"`
	Locale            string        `mapstructure:"locale"`
	WindowWidth       int           `mapstructure:"window_width"`
	WindowHeight      int           `mapstructure:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	LookupTimeout     time.Duration `mapstructure:"lookup_timeout"`
}

// TimingConfig holds every wait used while driving the page.
type TimingConfig struct {
	OverlayClick   time.Duration `mapstructure:"overlay_click"`
	ScrollSteps    int           `mapstructure:"scroll_steps"`
	ScrollDelta    float64       `mapstructure:"scroll_delta"`
	ScrollPause    time.Duration `mapstructure:"scroll_pause"`
	TriggerVisible time.Duration `mapstructure:"trigger_visible"`
	TriggerClick   time.Duration `mapstructure:"trigger_click"`
	ClickPause     time.Duration `mapstructure:"click_pause"`
	TypeDelay      time.Duration `mapstructure:"type_delay"`
	Settle         time.Duration `mapstructure:"settle"`
	SettleStrategy string        `mapstructure:"settle_strategy"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	NameTimeout    time.Duration `mapstructure:"name_timeout"`
	MessageTimeout time.Duration `mapstructure:"message_timeout"`
}

// NotifyConfig holds the HTTP notification endpoints.
type NotifyConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	SlackWebhook     string        `mapstructure:"slack_webhook"`
	WeChatWebhook    string        `mapstructure:"wechat_webhook"`
	TelegramAPIBase  string        `mapstructure:"telegram_api_base"`
	TelegramBotToken string        `mapstructure:"telegram_bot_token"`
	TelegramChatID   string        `mapstructure:"telegram_chat_id"`
}

// OutputConfig names the local artifacts.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	ReportName     string `mapstructure:"report_name"`
	SummaryName    string `mapstructure:"summary_name"`
	ScreenshotName string `mapstructure:"screenshot_name"`
	SnapshotName   string `mapstructure:"snapshot_name"`
	Stdout         bool   `mapstructure:"stdout"`
}

// StorageConfig enables the GCS mirror when a bucket is set.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// AMQPConfig holds the RabbitMQ notification target.
type AMQPConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	PushURL string `mapstructure:"push_url"`
	Job     string `mapstructure:"job"`
	Runtime bool   `mapstructure:"runtime"`
}

// ScheduleConfig drives watch mode.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// ServerConfig controls the watch-mode status server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features and the file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

// legacyEnv maps config keys to the environment names older deployments use.
var legacyEnv = map[string]string{
	"check.zip_codes":           "ZIP_CODES",
	"check.part_notes":          "PART_NOTES",
	"check.local_tz":            "LOCAL_TZ",
	"check.product_url":         "PRODUCT_URL",
	"notify.telegram_bot_token": "TELEGRAM_BOT_TOKEN",
	"notify.telegram_chat_id":   "TELEGRAM_CHAT_ID",
	"notify.slack_webhook":      "SLACK_WEBHOOK",
	"notify.wechat_webhook":     "WECHAT_WEBHOOK",
}

// Load builds a Config from disk/environment. Missing or empty values are
// replaced by defaults; nothing else is validated.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PICKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, legacy := range legacyEnv {
		prefixed := "PICKUP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	t := pickup.DefaultTiming()

	v.SetDefault("check.product_url", DefaultProductURL)
	v.SetDefault("check.zip_codes", DefaultZip)
	v.SetDefault("check.part_notes", DefaultPartNotes)
	v.SetDefault("check.local_tz", DefaultTimeZone)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.locale", "en-US")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", 45*time.Second)
	v.SetDefault("browser.lookup_timeout", 2*time.Second)
	v.SetDefault("timing.overlay_click", t.OverlayClick)
	v.SetDefault("timing.scroll_steps", t.ScrollSteps)
	v.SetDefault("timing.scroll_delta", t.ScrollDelta)
	v.SetDefault("timing.scroll_pause", t.ScrollPause)
	v.SetDefault("timing.trigger_visible", t.TriggerVisible)
	v.SetDefault("timing.trigger_click", t.TriggerClick)
	v.SetDefault("timing.click_pause", t.ClickPause)
	v.SetDefault("timing.type_delay", t.TypeDelay)
	v.SetDefault("timing.settle", t.Settle)
	v.SetDefault("timing.settle_strategy", t.SettleStrategy)
	v.SetDefault("timing.poll_interval", t.PollInterval)
	v.SetDefault("timing.name_timeout", t.NameTimeout)
	v.SetDefault("timing.message_timeout", t.MessageTimeout)
	v.SetDefault("notify.timeout", notify.DefaultTimeout)
	v.SetDefault("notify.telegram_api_base", notify.DefaultTelegramAPI)
	v.SetDefault("output.dir", "docs/data")
	v.SetDefault("output.report_name", "latest.json")
	v.SetDefault("output.summary_name", "last.txt")
	v.SetDefault("output.screenshot_name", "page_no_modal.png")
	v.SetDefault("output.snapshot_name", "page_no_modal.html")
	v.SetDefault("output.stdout", true)
	v.SetDefault("storage.prefix", "pickup")
	v.SetDefault("amqp.queue", "pickup.availability")
	v.SetDefault("metrics.job", "pickup-check")
	v.SetDefault("schedule.cron", "*/15 * * * *")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
}

// normalize splits zip lists and restores defaults for blank values.
func (c *Config) normalize() {
	c.Check.ZipCodes = splitZips(c.Check.ZipCodes)
	if len(c.Check.ZipCodes) == 0 {
		c.Check.ZipCodes = []string{DefaultZip}
	}
	c.Check.ProductURL = orDefault(c.Check.ProductURL, DefaultProductURL)
	c.Check.PartNotes = orDefault(c.Check.PartNotes, DefaultPartNotes)
	c.Check.LocalTZ = orDefault(c.Check.LocalTZ, DefaultTimeZone)

	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = notify.DefaultTimeout
	}
	c.Notify.TelegramAPIBase = orDefault(c.Notify.TelegramAPIBase, notify.DefaultTelegramAPI)

	c.Output.Dir = orDefault(c.Output.Dir, "docs/data")
	c.Output.ReportName = orDefault(c.Output.ReportName, "latest.json")
	c.Output.SummaryName = orDefault(c.Output.SummaryName, "last.txt")
	c.Metrics.Job = orDefault(c.Metrics.Job, "pickup-check")
	c.Schedule.Cron = orDefault(c.Schedule.Cron, "*/15 * * * *")
	c.Server.Addr = orDefault(c.Server.Addr, ":8080")
	c.AMQP.Queue = orDefault(c.AMQP.Queue, "pickup.availability")
}

// splitZips accepts list entries that themselves hold comma separated zips,
// trims each and drops the empty ones.
func splitZips(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, z := range strings.Split(entry, ",") {
			if z = strings.TrimSpace(z); z != "" {
				out = append(out, z)
			}
		}
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

// Location resolves the report time zone. An unknown zone yields UTC
// together with the lookup error so callers can warn.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Check.LocalTZ)
	if err != nil {
		return time.UTC, fmt.Errorf("load time zone %q: %w", c.Check.LocalTZ, err)
	}
	return loc, nil
}

// PickupTiming converts the timing section, keeping defaults for
// non-positive entries.
func (c Config) PickupTiming() pickup.Timing {
	t := pickup.DefaultTiming()
	src := c.Timing
	setDur(&t.OverlayClick, src.OverlayClick)
	setDur(&t.ScrollPause, src.ScrollPause)
	setDur(&t.TriggerVisible, src.TriggerVisible)
	setDur(&t.TriggerClick, src.TriggerClick)
	setDur(&t.ClickPause, src.ClickPause)
	setDur(&t.TypeDelay, src.TypeDelay)
	setDur(&t.Settle, src.Settle)
	setDur(&t.PollInterval, src.PollInterval)
	setDur(&t.NameTimeout, src.NameTimeout)
	setDur(&t.MessageTimeout, src.MessageTimeout)
	if src.ScrollSteps > 0 {
		t.ScrollSteps = src.ScrollSteps
	}
	if src.ScrollDelta > 0 {
		t.ScrollDelta = src.ScrollDelta
	}
	if s := strings.TrimSpace(src.SettleStrategy); s != "" {
		t.SettleStrategy = strings.ToLower(s)
	}
	return t
}

func setDur(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// BrowserOptions converts the browser section.
func (c Config) BrowserOptions() browser.Config {
	return browser.Config{
		Headless:          c.Browser.Headless,
		ExecPath:          c.Browser.ExecPath,
		UserAgent:         c.Browser.UserAgent,
		Locale:            c.Browser.Locale,
		WindowWidth:       c.Browser.WindowWidth,
		WindowHeight:      c.Browser.WindowHeight,
		NavigationTimeout: c.Browser.NavigationTimeout,
		LookupTimeout:     c.Browser.LookupTimeout,
	}
}

// NotifyOptions gathers every notification target.
func (c Config) NotifyOptions() notify.Config {
	return notify.Config{
		Timeout:          c.Notify.Timeout,
		SlackWebhookURL:  c.Notify.SlackWebhook,
		WeChatWebhookURL: c.Notify.WeChatWebhook,
		TelegramAPIBase:  c.Notify.TelegramAPIBase,
		TelegramToken:    c.Notify.TelegramBotToken,
		TelegramChatID:   c.Notify.TelegramChatID,
		PubSubProjectID:  c.PubSub.ProjectID,
		PubSubTopicID:    c.PubSub.TopicID,
		AMQPURL:          c.AMQP.URL,
		AMQPQueue:        c.AMQP.Queue,
	}
}

// LoggingOptions converts the logging section.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{
		Development: c.Logging.Development,
		Level:       c.Logging.Level,
		File:        c.Logging.File,
		MaxSizeMB:   c.Logging.MaxSizeMB,
		MaxBackups:  c.Logging.MaxBackups,
		MaxAgeDays:  c.Logging.MaxAgeDays,
		Compress:    c.Logging.Compress,
	}
}
