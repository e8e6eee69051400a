// Package i18n holds the translation table for user-visible strings.
//
// The catalog is built once at startup and handed to the UI explicitly;
// English strings are the keys, so an untranslated key renders as itself.
package i18n

import (
	"ytissues/internal/debug"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	MsgIssues             = "Issues"
	MsgNoIssues           = "No issues found"
	MsgAllResolved        = "All issues are resolved"
	MsgLoadMore           = "Load %d more"
	MsgLoadingMore        = "Loading more issues…"
	MsgUpdated            = "Updated %s"
	MsgFromCache          = "Showing cached issues"
	MsgServiceNotFound    = "No YouTrack services available"
	MsgCantLoad           = "Can't load information from service"
	MsgServiceUnavailable = "Selected YouTrack service is not available"
	MsgReadOnlyNew        = "This widget has not been configured"
	MsgConfigure          = "Edit"
	MsgRefresh            = "Refresh"
	MsgSave               = "Save"
	MsgCancel             = "Cancel"
	MsgTitle              = "Title"
	MsgService            = "YouTrack"
	MsgSearch             = "Search query"
	MsgContext            = "Context"
	MsgEverything         = "Everything"
	MsgRefreshPeriod      = "Refresh period"
	MsgProjects           = "Projects"
	MsgTags               = "Tags"
	MsgSavedSearches      = "Saved searches"
	MsgEverySeconds       = "Every %d seconds"
	MsgEveryMinutes       = "Every %d minutes"
	MsgCopied             = "Copied %s"
	MsgValidating         = "Checking query…"
	MsgNoSuggestions      = "No suggestions"
	MsgDefaultTitleHint   = "Leave empty to use the query"
	MsgRemoved            = "Widget removed"
)

var translations = map[string]map[string]string{
	"de": {
		MsgIssues:             "Tickets",
		MsgNoIssues:           "Keine Tickets gefunden",
		MsgAllResolved:        "Alle Tickets sind gelöst",
		MsgLoadMore:           "%d weitere laden",
		MsgLoadingMore:        "Weitere Tickets werden geladen…",
		MsgUpdated:            "Aktualisiert %s",
		MsgFromCache:          "Tickets aus dem Zwischenspeicher",
		MsgServiceNotFound:    "Keine YouTrack-Dienste verfügbar",
		MsgCantLoad:           "Informationen können nicht vom Dienst geladen werden",
		MsgServiceUnavailable: "Der ausgewählte YouTrack-Dienst ist nicht verfügbar",
		MsgReadOnlyNew:        "Dieses Widget wurde noch nicht konfiguriert",
		MsgConfigure:          "Bearbeiten",
		MsgRefresh:            "Aktualisieren",
		MsgSave:               "Speichern",
		MsgCancel:             "Abbrechen",
		MsgTitle:              "Titel",
		MsgSearch:             "Suchanfrage",
		MsgContext:            "Kontext",
		MsgEverything:         "Alles",
		MsgRefreshPeriod:      "Aktualisierungsintervall",
		MsgProjects:           "Projekte",
		MsgTags:               "Tags",
		MsgSavedSearches:      "Gespeicherte Suchen",
		MsgEverySeconds:       "Alle %d Sekunden",
		MsgEveryMinutes:       "Alle %d Minuten",
		MsgCopied:             "%s kopiert",
		MsgValidating:         "Anfrage wird geprüft…",
		MsgNoSuggestions:      "Keine Vorschläge",
		MsgDefaultTitleHint:   "Leer lassen, um die Anfrage zu verwenden",
		MsgRemoved:            "Widget entfernt",
	},
	"es": {
		MsgIssues:             "Incidencias",
		MsgNoIssues:           "No se han encontrado incidencias",
		MsgAllResolved:        "Todas las incidencias están resueltas",
		MsgLoadMore:           "Cargar %d más",
		MsgLoadingMore:        "Cargando más incidencias…",
		MsgUpdated:            "Actualizado %s",
		MsgFromCache:          "Mostrando incidencias en caché",
		MsgServiceNotFound:    "No hay servicios de YouTrack disponibles",
		MsgCantLoad:           "No se puede cargar la información del servicio",
		MsgServiceUnavailable: "El servicio de YouTrack seleccionado no está disponible",
		MsgReadOnlyNew:        "Este widget no se ha configurado",
		MsgConfigure:          "Editar",
		MsgRefresh:            "Actualizar",
		MsgSave:               "Guardar",
		MsgCancel:             "Cancelar",
		MsgTitle:              "Título",
		MsgSearch:             "Consulta de búsqueda",
		MsgContext:            "Contexto",
		MsgEverything:         "Todo",
		MsgRefreshPeriod:      "Periodo de actualización",
		MsgProjects:           "Proyectos",
		MsgTags:               "Etiquetas",
		MsgSavedSearches:      "Búsquedas guardadas",
		MsgEverySeconds:       "Cada %d segundos",
		MsgEveryMinutes:       "Cada %d minutos",
		MsgCopied:             "%s copiado",
		MsgValidating:         "Comprobando la consulta…",
		MsgNoSuggestions:      "Sin sugerencias",
		MsgDefaultTitleHint:   "Déjelo vacío para usar la consulta",
		MsgRemoved:            "Widget eliminado",
	},
	"fr": {
		MsgIssues:             "Tickets",
		MsgNoIssues:           "Aucun ticket trouvé",
		MsgAllResolved:        "Tous les tickets sont résolus",
		MsgLoadMore:           "Charger %d de plus",
		MsgLoadingMore:        "Chargement de tickets supplémentaires…",
		MsgUpdated:            "Mis à jour %s",
		MsgFromCache:          "Tickets affichés depuis le cache",
		MsgServiceNotFound:    "Aucun service YouTrack disponible",
		MsgCantLoad:           "Impossible de charger les informations du service",
		MsgServiceUnavailable: "Le service YouTrack sélectionné n'est pas disponible",
		MsgReadOnlyNew:        "Ce widget n'a pas été configuré",
		MsgConfigure:          "Modifier",
		MsgRefresh:            "Actualiser",
		MsgSave:               "Enregistrer",
		MsgCancel:             "Annuler",
		MsgTitle:              "Titre",
		MsgSearch:             "Requête de recherche",
		MsgContext:            "Contexte",
		MsgEverything:         "Tout",
		MsgRefreshPeriod:      "Période d'actualisation",
		MsgProjects:           "Projets",
		MsgTags:               "Étiquettes",
		MsgSavedSearches:      "Recherches enregistrées",
		MsgEverySeconds:       "Toutes les %d secondes",
		MsgEveryMinutes:       "Toutes les %d minutes",
		MsgCopied:             "%s copié",
		MsgValidating:         "Vérification de la requête…",
		MsgNoSuggestions:      "Aucune suggestion",
		MsgDefaultTitleHint:   "Laisser vide pour utiliser la requête",
		MsgRemoved:            "Widget supprimé",
	},
	"ru": {
		MsgIssues:             "Задачи",
		MsgNoIssues:           "Задачи не найдены",
		MsgAllResolved:        "Все задачи решены",
		MsgLoadMore:           "Загрузить ещё %d",
		MsgLoadingMore:        "Загрузка задач…",
		MsgUpdated:            "Обновлено %s",
		MsgFromCache:          "Показаны задачи из кэша",
		MsgServiceNotFound:    "Нет доступных сервисов YouTrack",
		MsgCantLoad:           "Не удалось загрузить данные сервиса",
		MsgServiceUnavailable: "Выбранный сервис YouTrack недоступен",
		MsgReadOnlyNew:        "Виджет не настроен",
		MsgConfigure:          "Изменить",
		MsgRefresh:            "Обновить",
		MsgSave:               "Сохранить",
		MsgCancel:             "Отмена",
		MsgTitle:              "Заголовок",
		MsgSearch:             "Поисковый запрос",
		MsgContext:            "Контекст",
		MsgEverything:         "Все",
		MsgRefreshPeriod:      "Период обновления",
		MsgProjects:           "Проекты",
		MsgTags:               "Теги",
		MsgSavedSearches:      "Сохранённые поиски",
		MsgEverySeconds:       "Каждые %d секунд",
		MsgEveryMinutes:       "Каждые %d минут",
		MsgCopied:             "Скопировано: %s",
		MsgValidating:         "Проверка запроса…",
		MsgNoSuggestions:      "Нет подсказок",
		MsgDefaultTitleHint:   "Оставьте пустым, чтобы использовать запрос",
		MsgRemoved:            "Виджет удалён",
	},
	"ja": {
		MsgIssues:             "課題",
		MsgNoIssues:           "課題が見つかりません",
		MsgAllResolved:        "すべての課題が解決済みです",
		MsgLoadMore:           "さらに %d 件を読み込む",
		MsgLoadingMore:        "課題を読み込んでいます…",
		MsgUpdated:            "%s に更新",
		MsgFromCache:          "キャッシュの課題を表示しています",
		MsgServiceNotFound:    "利用可能な YouTrack サービスがありません",
		MsgCantLoad:           "サービスから情報を読み込めません",
		MsgServiceUnavailable: "選択した YouTrack サービスは利用できません",
		MsgReadOnlyNew:        "このウィジェットは未設定です",
		MsgConfigure:          "編集",
		MsgRefresh:            "更新",
		MsgSave:               "保存",
		MsgCancel:             "キャンセル",
		MsgTitle:              "タイトル",
		MsgSearch:             "検索クエリ",
		MsgContext:            "コンテキスト",
		MsgEverything:         "すべて",
		MsgRefreshPeriod:      "更新間隔",
		MsgProjects:           "プロジェクト",
		MsgTags:               "タグ",
		MsgSavedSearches:      "保存済み検索",
		MsgEverySeconds:       "%d 秒ごと",
		MsgEveryMinutes:       "%d 分ごと",
		MsgCopied:             "%s をコピーしました",
		MsgValidating:         "クエリを確認しています…",
		MsgNoSuggestions:      "候補はありません",
		MsgDefaultTitleHint:   "空欄の場合はクエリを使用します",
		MsgRemoved:            "ウィジェットを削除しました",
	},
}

// Catalog is the immutable translation table.
type Catalog struct {
	cat     *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

// NewCatalog builds the table for every supported locale.
func NewCatalog() (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	tags := []language.Tag{language.English}
	for _, name := range []string{"de", "es", "fr", "ru", "ja"} {
		tag := language.MustParse(name)
		for key, msg := range translations[name] {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
		tags = append(tags, tag)
	}
	return &Catalog{cat: b, tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// Languages lists the supported locales, English first.
func (c *Catalog) Languages() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

// Translator returns a translator for the closest supported locale.
func (c *Catalog) Translator(locale string) *Translator {
	_, idx := language.MatchStrings(c.matcher, locale)
	tag := c.tags[idx]
	debug.Logf("i18n: locale %q -> %s", locale, tag)
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(c.cat))}
}

// Translator renders messages in one locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// English returns a translator without a catalog.
func English() *Translator {
	return &Translator{tag: language.English, printer: message.NewPrinter(language.English)}
}

// Tag reports the locale.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// T translates key and formats args into it.
func (t *Translator) T(key string, args ...any) string {
	if t == nil {
		return message.NewPrinter(language.English).Sprintf(key, args...)
	}
	return t.printer.Sprintf(key, args...)
}
