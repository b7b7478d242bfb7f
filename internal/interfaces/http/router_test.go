package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/events"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/memory"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/pdf"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/storage"
	apphttp "github.com/jhoicas/rescuebox-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/rescuebox-api/pkg/jwt"
)

type apiFixture struct {
	app *fiber.App
	mem *memory.Store

	userTok, user2Tok, storeTok, otherStoreTok, adminTok string

	storeID, boxID, pan, leche int64
}

func bearer(t *testing.T, sub pkgjwt.Subject) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, sub, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func newAPI(t *testing.T, stock int) *apiFixture {
	t.Helper()
	mem := memory.New()
	owner := mem.SeedUser(entity.User{Name: "Panadería", Email: "tienda@mail.com", Role: entity.RoleStore})
	otherOwner := mem.SeedUser(entity.User{Name: "Otra", Email: "otra@mail.com", Role: entity.RoleStore})
	u1 := mem.SeedUser(entity.User{Name: "U1", Email: "u1@mail.com", Role: entity.RoleUser})
	u2 := mem.SeedUser(entity.User{Name: "U2", Email: "u2@mail.com", Role: entity.RoleUser})
	admin := mem.SeedUser(entity.User{Name: "Admin", Email: "admin@mail.com", Role: entity.RoleAdmin})
	sid := mem.SeedStore(entity.Store{UserID: owner, Name: "Panadería", Address: "Av. 1"})
	osid := mem.SeedStore(entity.Store{UserID: otherOwner, Name: "Otra"})
	pan := mem.SeedProduct(entity.Product{StoreID: sid, Name: "Pan", Price: decimal.NewFromInt(2000)})
	leche := mem.SeedProduct(entity.Product{StoreID: sid, Name: "Leche", Price: decimal.NewFromInt(3500)})
	boxID := mem.SeedBox(entity.Box{StoreID: sid, Name: "B1", DiscountPrice: decimal.NewFromInt(5000), Stock: stock})

	photos, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	authUC := auth.NewAuthUseCase(mem.Users(), mem.Stores(), mem, auth.JWTConfig{
		Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
	})
	app := apphttp.NewApp(apphttp.AppConfig{Name: "rescuebox-test"})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: authUC,
		ReservationUC: reservation.NewUseCase(mem.Reservations(), mem, events.NopPublisher{},
			pdf.NewVoucherGenerator("RescueBox"), reservation.Options{StrictPickup: true}),
		BoxUC:      usecase.NewBoxUseCase(mem.Boxes(), mem.Products()),
		ProductUC:  usecase.NewProductUseCase(mem.Products(), photos),
		StoreUC:    usecase.NewStoreUseCase(mem.Reservations()),
		AdminUC:    usecase.NewAdminUseCase(mem.Admin(), authUC),
		JWTSecret:  testJWTSecret,
		UploadsDir: photos.Dir(),
	})

	return &apiFixture{
		app:      app,
		mem:      mem,
		userTok:  bearer(t, pkgjwt.Subject{UserID: u1, Email: "u1@mail.com", Role: entity.RoleUser}),
		user2Tok: bearer(t, pkgjwt.Subject{UserID: u2, Email: "u2@mail.com", Role: entity.RoleUser}),
		// sin store_id: el middleware la resuelve
		storeTok:      bearer(t, pkgjwt.Subject{UserID: owner, Email: "tienda@mail.com", Role: entity.RoleStore}),
		otherStoreTok: bearer(t, pkgjwt.Subject{UserID: otherOwner, Email: "otra@mail.com", Role: entity.RoleStore, StoreID: &osid}),
		adminTok:      bearer(t, pkgjwt.Subject{UserID: admin, Email: "admin@mail.com", Role: entity.RoleAdmin}),
		storeID:       sid, boxID: boxID, pan: pan, leche: leche,
	}
}

// call hace la petición con cuerpo JSON opcional y devuelve status y cuerpo.
func (f *apiFixture) call(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return f.do(t, req)
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (f *apiFixture) reserve(t *testing.T, token string) (int, dto.CreateReservationResponse) {
	t.Helper()
	status, body := f.call(t, http.MethodPost, "/api/reservas", token,
		dto.CreateReservationRequest{BoxID: f.boxID, FranjaHoraria: "18:00-19:00"})
	var out dto.CreateReservationResponse
	if status == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return status, out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Code
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoReservaRetiro(t *testing.T) {
	f := newAPI(t, 2)

	status, res := f.reserve(t, f.userTok)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, res.QRCode)
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))

	status, body := f.call(t, http.MethodGet, "/api/reservas/mis", f.userTok, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []dto.UserReservationResponse
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "pendiente", mine[0].Estado)
	assert.Equal(t, "Panadería", mine[0].StoreName)

	status, body = f.call(t, http.MethodGet, "/api/reservas/store", f.storeTok, nil)
	require.Equal(t, http.StatusOK, status)
	var received []dto.StoreReservationResponse
	require.NoError(t, json.Unmarshal(body, &received))
	require.Len(t, received, 1)
	assert.Equal(t, "u1@mail.com", received[0].Email)

	path := "/api/reservas/" + itoa(res.ID) + "/validar"
	status, _ = f.call(t, http.MethodPost, path, f.storeTok, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = f.call(t, http.MethodPost, path, f.storeTok, nil)
	assert.Equal(t, http.StatusConflict, status, "una reserva retirada no se vuelve a validar")
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, body))

	status, body = f.call(t, http.MethodGet, "/api/store/stats", f.storeTok, nil)
	require.Equal(t, http.StatusOK, status)
	var stats dto.StoreStatsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.VentasTotal)
	assert.True(t, stats.Ingresos.Equal(decimal.NewFromInt(5000)))
}

func TestAPI_ReservaSinStock_Retorna409(t *testing.T) {
	f := newAPI(t, 1)

	status, _ := f.reserve(t, f.userTok)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.reserve(t, f.user2Tok)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
	assert.Equal(t, 1, f.mem.ReservationCount())
}

func TestAPI_ReservaCajaInexistente_Retorna404(t *testing.T) {
	f := newAPI(t, 1)
	status, body := f.call(t, http.MethodPost, "/api/reservas", f.userTok,
		dto.CreateReservationRequest{BoxID: 9999, FranjaHoraria: "18:00"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestAPI_ReservaSinFranja_Retorna400(t *testing.T) {
	f := newAPI(t, 1)
	status, body := f.call(t, http.MethodPost, "/api/reservas", f.userTok, map[string]interface{}{"box_id": f.boxID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))
}

func TestAPI_ReservaJSONMalformado_Retorna400(t *testing.T) {
	f := newAPI(t, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/reservas", strings.NewReader("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.userTok)
	status, body := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BODY", errorCode(t, body))
}

func TestAPI_TiendaNoPuedeReservar(t *testing.T) {
	f := newAPI(t, 1)
	status, _ := f.reserve(t, f.storeTok)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))
}

func TestAPI_SinToken_Retorna401(t *testing.T) {
	f := newAPI(t, 1)
	status, body := f.call(t, http.MethodGet, "/api/reservas/mis", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, body))
}

func TestAPI_CancelarAjena_Retorna404(t *testing.T) {
	f := newAPI(t, 2)
	_, res := f.reserve(t, f.userTok)

	status, _ := f.call(t, http.MethodPatch, "/api/reservas/"+itoa(res.ID)+"/cancelar", f.user2Tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))

	status, _ = f.call(t, http.MethodPatch, "/api/reservas/"+itoa(res.ID)+"/cancelar", f.userTok, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))

	status, _ = f.call(t, http.MethodPatch, "/api/reservas/"+itoa(res.ID)+"/cancelar", f.userTok, nil)
	assert.Equal(t, http.StatusNotFound, status, "una reserva cancelada no se cancela dos veces")
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))
}

func TestAPI_ValidarTiendaAjena_Retorna403(t *testing.T) {
	f := newAPI(t, 1)
	_, res := f.reserve(t, f.userTok)

	status, _ := f.call(t, http.MethodPost, "/api/reservas/"+itoa(res.ID)+"/validar", f.otherStoreTok, nil)
	assert.Equal(t, http.StatusForbidden, status)
	got, ok := f.mem.Reservation(res.ID)
	require.True(t, ok)
	assert.Equal(t, entity.ReservationPending, got.Status)
}

func TestAPI_IDInvalido_Retorna400(t *testing.T) {
	f := newAPI(t, 1)
	status, _ := f.call(t, http.MethodPost, "/api/reservas/abc/validar", f.storeTok, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Comprobante(t *testing.T) {
	f := newAPI(t, 1)
	_, res := f.reserve(t, f.userTok)

	req := httptest.NewRequest(http.MethodGet, "/api/reservas/"+itoa(res.ID)+"/comprobante", nil)
	req.Header.Set("Authorization", f.userTok)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdfBytes, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))

	status, _ := f.call(t, http.MethodGet, "/api/reservas/"+itoa(res.ID)+"/comprobante", f.user2Tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_RegistroYLogin(t *testing.T) {
	f := newAPI(t, 1)

	status, body := f.call(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Nombre: "Verdulería", Email: "Nueva@Mail.com", Contrasena: "secreto1", Rol: "store",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var reg dto.RegisterResponse
	require.NoError(t, json.Unmarshal(body, &reg))
	assert.Equal(t, "nueva@mail.com", reg.Email)
	assert.Equal(t, "store", reg.Rol)

	status, body = f.call(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "nueva@mail.com", Contrasena: "otro123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMAIL_EXISTS", errorCode(t, body))

	status, _ = f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nueva@mail.com", Contrasena: "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nueva@mail.com", Contrasena: "secreto1"})
	require.Equal(t, http.StatusOK, status)
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, "store", login.User.Role)
	require.NotNil(t, login.User.StoreID, "el rol store recibe la tienda creada en el registro")

	status, body = f.call(t, http.MethodGet, "/api/store/products", "Bearer "+login.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))
}

func TestAPI_RegistroAdmin_Rechazado(t *testing.T) {
	f := newAPI(t, 1)
	status, body := f.call(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "root@mail.com", Contrasena: "secreto1", Rol: "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_CajasPublicasSinToken(t *testing.T) {
	f := newAPI(t, 3)
	status, body := f.call(t, http.MethodGet, "/api/boxes/public", "", nil)
	require.Equal(t, http.StatusOK, status)
	var boxes []dto.BoxResponse
	require.NoError(t, json.Unmarshal(body, &boxes))
	require.Len(t, boxes, 1)
	assert.Equal(t, f.boxID, boxes[0].ID)

	status, _ = f.call(t, http.MethodGet, "/api/boxes/"+itoa(f.boxID), "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = f.call(t, http.MethodGet, "/api/boxes/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_CrearCaja_ProductosComoString(t *testing.T) {
	f := newAPI(t, 1)
	productos := `[{"id":` + itoa(f.pan) + `,"cantidad":2},{"product_id":` + itoa(f.leche) + `}]`
	status, body := f.call(t, http.MethodPost, "/api/boxes", f.storeTok, map[string]interface{}{
		"nombre":           "Caja desayuno",
		"precio_descuento": 3000,
		"stock":            4,
		"productos":        productos,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var out dto.CreateBoxResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.PrecioNormal.Equal(decimal.NewFromInt(7500)))
	assert.Nil(t, out.HorarioFin)

	status, body = f.call(t, http.MethodGet, "/api/store/boxes", f.storeTok, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []dto.BoxResponse
	require.NoError(t, json.Unmarshal(body, &mine))
	assert.Len(t, mine, 2)
}

func TestAPI_CrearCajaSinProductos_Retorna400(t *testing.T) {
	f := newAPI(t, 1)
	status, _ := f.call(t, http.MethodPost, "/api/boxes", f.storeTok, map[string]interface{}{
		"nombre": "Vacía", "precio_descuento": 1000, "stock": 1, "productos": "no-es-json",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_CrearProductoMultipartConFoto(t *testing.T) {
	f := newAPI(t, 1)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("nombre", "Croissant"))
	require.NoError(t, w.WriteField("precio", "1500.50"))
	require.NoError(t, w.WriteField("stock", "10"))
	fw, err := w.CreateFormFile("foto", "croissant fresco.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-jpeg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", f.storeTok)
	status, body := f.do(t, req)
	require.Equal(t, http.StatusCreated, status, string(body))

	var out dto.CreateProductResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Croissant", out.Nombre)
	assert.True(t, out.Precio.Equal(decimal.RequireFromString("1500.50")))
	require.NotNil(t, out.Foto)
	assert.True(t, strings.HasPrefix(*out.Foto, "/uploads/"))

	status, raw := f.call(t, http.MethodGet, *out.Foto, "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fake-jpeg", string(raw))
}

func TestAPI_CrearProductoSinPrecio_Retorna400(t *testing.T) {
	f := newAPI(t, 1)
	status, body := f.call(t, http.MethodPost, "/api/products", f.storeTok, map[string]interface{}{"nombre": "Pan"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))
}

// ──────────────────────────────────────────────────────────────────────────────
// Admin
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_AdminSoloParaAdmin(t *testing.T) {
	f := newAPI(t, 1)
	status, _ := f.call(t, http.MethodGet, "/api/admin/users", f.userTok, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = f.call(t, http.MethodGet, "/api/admin/users", f.storeTok, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_AdminCreaTienda(t *testing.T) {
	f := newAPI(t, 1)
	in := dto.CreateStoreRequest{
		NombreUser: "Dueña", NombreStore: "Frutería", Email: "fruta@mail.com", Contrasena: "secreto1",
		Direccion: "Calle 9",
	}
	status, body := f.call(t, http.MethodPost, "/api/admin/stores", f.adminTok, in)
	require.Equal(t, http.StatusCreated, status, string(body))
	var out dto.CreateStoreResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotZero(t, out.StoreID)

	status, body = f.call(t, http.MethodPost, "/api/admin/stores", f.adminTok, in)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMAIL_EXISTS", errorCode(t, body))

	status, body = f.call(t, http.MethodGet, "/api/admin/stats", f.adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	var stats dto.AdminStatsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 6, stats.Users)

	status, body = f.call(t, http.MethodGet, "/api/admin/stores-with-boxes", f.adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	var stores []dto.StoreSummaryResponse
	require.NoError(t, json.Unmarshal(body, &stores))
	assert.Len(t, stores, 3)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
