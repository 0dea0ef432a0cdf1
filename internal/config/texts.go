package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v2"
)

// Texts holds the static bot copy that deployments may override from a side file.
// Content that admins edit at runtime lives in the content store instead.
type Texts struct {
	UserHelp  string  `yaml:"user_help"`
	AdminHelp string  `yaml:"admin_help"`
	Buttons   Buttons `yaml:"buttons"`
}

type Buttons struct {
	MyBookings string `yaml:"my_bookings"`
	Reviews    string `yaml:"reviews"`
	Rules      string `yaml:"rules"`
	Support    string `yaml:"support"`
	Menu       string `yaml:"menu"`
}

func DefaultTexts() Texts {
	return Texts{
		UserHelp: "ℹ️ <b>Справка</b>\n\n" +
			"/start — главное меню\n" +
			"/my_bookings — мои брони\n" +
			"/today — брони на сегодня\n" +
			"/cancel <code>ID</code> — отменить бронь\n" +
			"/reviews — отзывы гостей\n" +
			"/myid — ваш идентификатор",
		AdminHelp: "🛠 <b>Команды администратора</b>\n\n" +
			"/admin — панель управления\n" +
			"/stats — статистика\n" +
			"/today — брони на сегодня\n" +
			"/tomorrow — брони на завтра\n" +
			"/confirm <code>ID</code> — подтвердить оплату\n" +
			"/cancel <code>ID</code> — отменить любую бронь\n" +
			"/export <code>current|last|all</code> — отчёт в Excel\n" +
			"/content — тексты бота\n" +
			"/content_set <code>поле текст</code> — изменить текст\n" +
			"/content_reset <code>поле</code> — вернуть текст по умолчанию\n" +
			"/test — проверить связь с сервером\n" +
			"/self_check — диагностика\n" +
			"/test_notify — тестовые уведомления",
		Buttons: Buttons{
			MyBookings: "📋 Мои брони",
			Reviews:    "⭐ Отзывы",
			Rules:      "📜 Правила",
			Support:    "💬 Поддержка",
			Menu:       "🏠 В меню",
		},
	}
}

// Merge fills empty fields of t from defaults.
func (t Texts) Merge(defaults Texts) Texts {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	t.UserHelp = pick(t.UserHelp, defaults.UserHelp)
	t.AdminHelp = pick(t.AdminHelp, defaults.AdminHelp)
	t.Buttons.MyBookings = pick(t.Buttons.MyBookings, defaults.Buttons.MyBookings)
	t.Buttons.Reviews = pick(t.Buttons.Reviews, defaults.Buttons.Reviews)
	t.Buttons.Rules = pick(t.Buttons.Rules, defaults.Buttons.Rules)
	t.Buttons.Support = pick(t.Buttons.Support, defaults.Buttons.Support)
	t.Buttons.Menu = pick(t.Buttons.Menu, defaults.Buttons.Menu)
	return t
}

// LoadTexts reads the texts file. A missing file yields the defaults.
func LoadTexts(path string) (Texts, error) {
	defaults := DefaultTexts()
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return Texts{}, fmt.Errorf("read texts %s: %w", path, err)
	}

	var t Texts
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Texts{}, fmt.Errorf("parse texts %s: %w", path, err)
	}
	return t.Merge(defaults), nil
}
