package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clientdesk/internal/service"
	"github.com/m3rciful/clientdesk/internal/storage"
	tg "github.com/m3rciful/clientdesk/internal/telegram"
	"github.com/m3rciful/clientdesk/internal/telegram/state"
)

// fakeContext implements the subset of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context

	user     *tele.User
	text     string
	message  *tele.Message
	callback *tele.Callback
	store    map[string]any

	sent   []string
	edited []string
	markup []*tele.ReplyMarkup
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID},
		store: make(map[string]any),
	}
}

func (c *fakeContext) withText(text string) *fakeContext {
	c.text = text
	c.message = &tele.Message{Text: text}
	c.callback = nil
	return c
}

func (c *fakeContext) withPhoto() *fakeContext {
	c.text = ""
	c.message = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "photo-1"}}}
	c.callback = nil
	return c
}

func (c *fakeContext) withCallback(unique, payload string) *fakeContext {
	c.text = ""
	c.message = &tele.Message{}
	c.callback = &tele.Callback{Unique: unique, Data: payload, Message: c.message}
	return c
}

func (c *fakeContext) Sender() *tele.User      { return c.user }
func (c *fakeContext) Chat() *tele.Chat        { return &tele.Chat{ID: c.user.ID} }
func (c *fakeContext) Text() string            { return c.text }
func (c *fakeContext) Message() *tele.Message  { return c.message }
func (c *fakeContext) Callback() *tele.Callback { return c.callback }

func (c *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: c.message, Callback: c.callback}
}

func (c *fakeContext) Set(key string, v any) { c.store[key] = v }
func (c *fakeContext) Get(key string) any    { return c.store[key] }

func (c *fakeContext) Send(what any, opts ...any) error {
	text, _ := what.(string)
	c.sent = append(c.sent, text)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so.ReplyMarkup != nil {
			c.markup = append(c.markup, so.ReplyMarkup)
		}
	}
	return nil
}

func (c *fakeContext) EditOrSend(what any, opts ...any) error {
	text, _ := what.(string)
	c.edited = append(c.edited, text)
	return nil
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error { return nil }

func (c *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return c.sent[len(c.sent)-1]
}

func (c *fakeContext) lastEdited(t *testing.T) string {
	t.Helper()
	if len(c.edited) == 0 {
		t.Fatal("nothing edited")
	}
	return c.edited[len(c.edited)-1]
}

// --- service fakes ---

type fakeUploader struct {
	fail bool
	n    int
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if u.fail {
		return "", fmt.Errorf("upload refused")
	}
	u.n++
	return fmt.Sprintf("https://cdn.example/%s", filename), nil
}

type fakeEncoder struct {
	vec   []float64
	found bool
}

func (e *fakeEncoder) Encode(ctx context.Context, image []byte) ([]float64, bool, error) {
	return e.vec, e.found, nil
}

func encVec(seed float64) []float64 {
	vec := make([]float64, 128)
	for i := range vec {
		vec[i] = seed
	}
	return vec
}

type fixture struct {
	bot   *Bot
	store *storage.MemoryStore
	reg   *tg.Registry
}

func newFixture(t *testing.T, enc *fakeEncoder) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	var svc *service.Clients
	if enc != nil {
		svc = service.NewClients(store, &fakeUploader{}, enc, nil)
	} else {
		svc = service.NewClients(store, &fakeUploader{}, nil, nil)
	}
	b := New(svc, state.NewMemoryManager())
	b.download = func(c tele.Context) ([]byte, error) {
		return []byte("jpeg-bytes"), nil
	}
	reg := tg.NewRegistry()
	b.Install(reg)
	return &fixture{bot: b, store: store, reg: reg}
}

func (f *fixture) seedClient(t *testing.T, phones []string, comment string) int64 {
	t.Helper()
	id, err := f.store.Create(context.Background(), phones, comment, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// --- tests ---

func TestRegistrationFlowWithPhoto(t *testing.T) {
	f := newFixture(t, nil)
	userID := int64(100)
	c := newFakeContext(userID)

	if err := f.bot.handleAddClient(c.withText("/add_client")); err != nil {
		t.Fatal(err)
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingPhotoOrSkip {
		t.Fatalf("state = %q", got)
	}

	if err := f.bot.sessions.HandleCurrent(c.withPhoto()); err != nil {
		t.Fatal(err)
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingPhoneAndComment {
		t.Fatalf("state after photo = %q", got)
	}
	if urls := f.bot.sessions.Get(userID).Draft.PhotoURLs; len(urls) != 1 {
		t.Fatalf("draft photos = %v", urls)
	}

	if err := f.bot.sessions.HandleCurrent(c.withText("+380991112233 постійний клієнт")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), "успішно зареєстровано") {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if f.bot.sessions.InProgress(userID) {
		t.Fatal("session not cleared after registration")
	}

	found, err := f.store.Search(context.Background(), "0991112233")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || len(found[0].Photos) != 1 {
		t.Fatalf("stored client = %+v", found)
	}
}

func TestRegistrationSkipPhoto(t *testing.T) {
	f := newFixture(t, nil)
	userID := int64(101)
	c := newFakeContext(userID)

	_ = f.bot.handleAddClient(c.withText("/add_client"))
	if err := f.bot.sessions.HandleCurrent(c.withText("skip")); err != nil {
		t.Fatal(err)
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingPhoneAndComment {
		t.Fatalf("state after skip = %q", got)
	}

	_ = f.bot.sessions.HandleCurrent(c.withText("0501234567 без фото"))
	found, err := f.store.Search(context.Background(), "без фото")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || len(found[0].Photos) != 0 {
		t.Fatalf("stored client = %+v", found)
	}
}

func TestRegistrationRePromptsWithoutPhone(t *testing.T) {
	f := newFixture(t, nil)
	userID := int64(102)
	c := newFakeContext(userID)

	_ = f.bot.handleAddClient(c.withText("/add_client"))
	_ = f.bot.sessions.HandleCurrent(c.withText("skip"))
	if err := f.bot.sessions.HandleCurrent(c.withText("просто текст без номера")); err != nil {
		t.Fatal(err)
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingPhoneAndComment {
		t.Fatalf("state = %q, want re-prompt loop", got)
	}
	if c.lastSent(t) != msgNoPhones {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
}

func TestSearchFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.seedClient(t, []string{"+380501234567"}, "VIP клієнт")
	f.seedClient(t, []string{"+380671234567"}, "оптовик")
	userID := int64(103)
	c := newFakeContext(userID)

	_ = f.bot.handleSearchClient(c.withText("/search_client"))

	// Too short: stays in the same state.
	_ = f.bot.sessions.HandleCurrent(c.withText("ab"))
	if c.lastSent(t) != msgSearchTooShort {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingSearchQuery {
		t.Fatalf("state = %q", got)
	}

	// No hits: reports and returns to idle.
	_ = f.bot.sessions.HandleCurrent(c.withText("немає такого"))
	if c.lastSent(t) != msgNoResults {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if f.bot.sessions.InProgress(userID) {
		t.Fatal("session survived empty search")
	}

	// Single hit: card plus edit menu, armed for edit select.
	_ = f.bot.handleSearchClient(c.withText("/search_client"))
	_ = f.bot.sessions.HandleCurrent(c.withText("VIP"))
	if !strings.Contains(c.lastSent(t), "КЛІЄНТ ЗНАЙДЕНИЙ") {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingEditSelect {
		t.Fatalf("state = %q", got)
	}
	if id := f.bot.sessions.Get(userID).Draft.EditClientID; id == 0 {
		t.Fatal("edit client id not stored")
	}
}

func TestSearchMultipleHitsListsTopFive(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 7; i++ {
		f.seedClient(t, []string{fmt.Sprintf("+38050123456%d", i)}, "оптовий покупець")
	}
	userID := int64(104)
	c := newFakeContext(userID)

	_ = f.bot.handleSearchClient(c.withText("/search_client"))
	_ = f.bot.sessions.HandleCurrent(c.withText("оптовий"))

	reply := c.lastSent(t)
	if !strings.Contains(reply, "Знайдено 7 клієнтів") {
		t.Fatalf("reply = %q", reply)
	}
	if strings.Contains(reply, "6. ID:") {
		t.Fatalf("reply lists more than five entries: %q", reply)
	}
	if f.bot.sessions.InProgress(userID) {
		t.Fatal("session survived multi-hit search")
	}
}

func TestEditAddPhoneViaCallback(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seedClient(t, []string{"+380501234567"}, "VIP")
	userID := int64(105)
	c := newFakeContext(userID)

	if err := f.bot.callbackEditPhone(c.withCallback(cbEditPhone, fmt.Sprintf("%d", id))); err != nil {
		t.Fatal(err)
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingNewPhone {
		t.Fatalf("state = %q", got)
	}

	// Invalid number re-prompts in place.
	_ = f.bot.sessions.HandleCurrent(c.withText("12"))
	if c.lastSent(t) != msgBadPhone {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingNewPhone {
		t.Fatalf("state = %q", got)
	}

	_ = f.bot.sessions.HandleCurrent(c.withText("067 111 22 33"))
	if !strings.Contains(c.lastSent(t), "успішно додано") {
		t.Fatalf("reply = %q", c.lastSent(t))
	}

	client, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.Phones) != 2 || client.Phones[1] != "0671112233" {
		t.Fatalf("phones = %v", client.Phones)
	}
}

func TestEditCommentViaCallback(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seedClient(t, []string{"+380501234567"}, "старий коментар")
	userID := int64(106)
	c := newFakeContext(userID)

	_ = f.bot.callbackEditComment(c.withCallback(cbEditComment, fmt.Sprintf("%d", id)))
	_ = f.bot.sessions.HandleCurrent(c.withText("новий коментар"))

	client, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if client.Comment != "новий коментар" {
		t.Fatalf("comment = %q", client.Comment)
	}
	if f.bot.sessions.InProgress(userID) {
		t.Fatal("session not cleared")
	}
}

func TestEditPhotoViaCallback(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seedClient(t, []string{"+380501234567"}, "VIP")
	userID := int64(107)
	c := newFakeContext(userID)

	_ = f.bot.callbackEditPhoto(c.withCallback(cbEditPhoto, fmt.Sprintf("%d", id)))

	// Text in the photo state re-prompts.
	_ = f.bot.sessions.HandleCurrent(c.withText("не фото"))
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingNewPhoto {
		t.Fatalf("state = %q", got)
	}

	_ = f.bot.sessions.HandleCurrent(c.withPhoto())
	client, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.Photos) != 1 {
		t.Fatalf("photos = %v", client.Photos)
	}
}

func TestDeleteClientCallback(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seedClient(t, []string{"+380501234567"}, "VIP")
	userID := int64(108)
	c := newFakeContext(userID)

	_ = f.bot.callbackDeleteClient(c.withCallback(cbDeleteClient, fmt.Sprintf("%d", id)))
	if !strings.Contains(c.lastEdited(t), "успішно видалено") {
		t.Fatalf("reply = %q", c.lastEdited(t))
	}

	// Second press reports not-found instead of success.
	_ = f.bot.callbackDeleteClient(c.withCallback(cbDeleteClient, fmt.Sprintf("%d", id)))
	if !strings.Contains(c.lastEdited(t), "не знайдений") {
		t.Fatalf("reply = %q", c.lastEdited(t))
	}
}

func TestCancelFromAnyState(t *testing.T) {
	f := newFixture(t, nil)
	userID := int64(109)
	c := newFakeContext(userID)

	_ = f.bot.handleAddClient(c.withText("/add_client"))
	_ = f.bot.sessions.HandleCurrent(c.withPhoto())
	if !f.bot.sessions.InProgress(userID) {
		t.Fatal("flow not started")
	}

	if err := f.bot.handleCancel(c.withText("/cancel")); err != nil {
		t.Fatal(err)
	}
	if f.bot.sessions.InProgress(userID) {
		t.Fatal("cancel left the session active")
	}
	if d := f.bot.sessions.Get(userID).Draft; len(d.PhotoURLs) != 0 {
		t.Fatalf("draft survived cancel: %+v", d)
	}
	if c.lastSent(t) != msgCancelled {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
}

func TestCancelButtonAliasResolves(t *testing.T) {
	f := newFixture(t, nil)
	key, cmd, ok := f.reg.LookupCommand(BtnCancel)
	if !ok || key != "/cancel" || cmd.Handler == nil {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
}

func TestIdlePhotoFaceMatch(t *testing.T) {
	enc := &fakeEncoder{vec: encVec(0.25), found: true}
	f := newFixture(t, enc)

	// Seed a client whose stored encoding matches the probe.
	id, err := f.store.Create(context.Background(),
		[]string{"+380501234567"}, "постійний", nil, [][]float64{encVec(0.25)})
	if err != nil {
		t.Fatal(err)
	}

	userID := int64(110)
	c := newFakeContext(userID)
	if err := f.bot.handleIdlePhoto(c.withPhoto()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.lastSent(t), fmt.Sprintf("ID: %d", id)) {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if got := f.bot.sessions.GetState(userID); got != state.StateAwaitingEditSelect {
		t.Fatalf("state = %q", got)
	}
}

func TestIdlePhotoNoFace(t *testing.T) {
	enc := &fakeEncoder{found: false}
	f := newFixture(t, enc)
	c := newFakeContext(111)

	if err := f.bot.handleIdlePhoto(c.withPhoto()); err != nil {
		t.Fatal(err)
	}
	if c.lastSent(t) != msgNoFace {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
}

func TestDuplicatePhoneConflictAborts(t *testing.T) {
	f := newFixture(t, nil)
	first := f.seedClient(t, []string{"+380501234567"}, "перший")
	userID := int64(112)
	c := newFakeContext(userID)

	_ = f.bot.handleAddClient(c.withText("/add_client"))
	_ = f.bot.sessions.HandleCurrent(c.withText("skip"))
	_ = f.bot.sessions.HandleCurrent(c.withText("+38 (050) 123-45-67 самозванець"))

	if !strings.Contains(c.lastSent(t), fmt.Sprintf("ID:%d", first)) {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if f.bot.sessions.InProgress(userID) {
		t.Fatal("conflict should abort to idle")
	}
}

func TestUploadFailureRePrompts(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := service.NewClients(store, &fakeUploader{fail: true}, nil, nil)
	b := New(svc, state.NewMemoryManager())
	b.download = func(c tele.Context) ([]byte, error) { return []byte("x"), nil }
	reg := tg.NewRegistry()
	b.Install(reg)

	userID := int64(113)
	c := newFakeContext(userID)
	_ = b.handleAddClient(c.withText("/add_client"))
	_ = b.sessions.HandleCurrent(c.withPhoto())

	if c.lastSent(t) != msgUploadFailed {
		t.Fatalf("reply = %q", c.lastSent(t))
	}
	if got := b.sessions.GetState(userID); got != state.StateAwaitingPhotoOrSkip {
		t.Fatalf("state = %q, want same state for retry", got)
	}
}
