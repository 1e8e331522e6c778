// Package storefront is the client side of the NexusMart API: a typed REST
// client plus the locally persisted cart, checkout and admin flows built on it.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"nexusmart/internal/lifecycle"
	"nexusmart/internal/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status     int
	Message    string
	RequireOTP bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the API. It keeps the session token in memory and sends it
// as a bearer token; cookies (the checkout session) go through the jar.
type Client struct {
	baseURL    string
	HTTPClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	if res.StatusCode >= 300 {
		defer res.Body.Close()
		apiErr := &APIError{Status: res.StatusCode}
		var body struct {
			Message    string `json:"message"`
			RequireOTP bool   `json:"requireOtp"`
		}
		if json.NewDecoder(res.Body).Decode(&body) == nil {
			apiErr.Message = body.Message
			apiErr.RequireOTP = body.RequireOTP
		}
		return nil, apiErr
	}
	return res, nil
}

// do sends a JSON request and decodes a JSON answer into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	res, err := c.send(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(res.Body).Decode(out), "decode %s", path)
}

// --- Auth ---

func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &out)
	return out.UserID, err
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Verify confirms the registration code and signs in.
func (c *Client) Verify(ctx context.Context, email, otp string) (*models.User, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify", map[string]string{"email": email, "otp": otp}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/password/forgot", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, password, confirm string) error {
	return c.do(ctx, http.MethodPut, "/api/auth/password/reset", map[string]string{
		"email": email, "otp": otp, "password": password, "confirmPassword": confirm,
	}, nil)
}

// --- Catalogue ---

func (c *Client) Products(ctx context.Context, keyword string) ([]models.Product, error) {
	path := "/api/products"
	if keyword != "" {
		path += "?keyword=" + url.QueryEscape(keyword)
	}
	var out struct {
		Products []models.Product `json:"products"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Products, err
}

func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	var out struct {
		Product *models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) CreateProduct(ctx context.Context, req models.NewProductRequest) (*models.Product, error) {
	var out struct {
		Product *models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/products", req, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out struct {
		Categories []models.Category `json:"categories"`
	}
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out.Categories, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var out struct {
		Category *models.Category `json:"category"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return out.Category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// --- Orders ---

type orderResponse struct {
	Order  *models.Order  `json:"order"`
	Orders []models.Order `json:"orders"`
}

func (c *Client) CreateOrder(ctx context.Context, req models.NewOrderRequest) (*models.Order, error) {
	var out orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders/new", req, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out orderResponse
	err := c.do(ctx, http.MethodGet, "/api/orders/me", nil, &out)
	return out.Orders, err
}

func (c *Client) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	var out orderResponse
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id)+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) AdminOrders(ctx context.Context, tab lifecycle.Tab) ([]models.Order, error) {
	path := "/api/orders/admin/orders"
	if tab != "" {
		path += "?tab=" + url.QueryEscape(string(tab))
	}
	var out orderResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Orders, err
}

func (c *Client) AdminStats(ctx context.Context) (*models.OrderStats, error) {
	var out struct {
		Stats *models.OrderStats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, upd models.AdminOrderUpdate) (*models.Order, error) {
	var out orderResponse
	if err := c.do(ctx, http.MethodPut, "/api/orders/admin/order/"+url.PathEscape(id), upd, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) RequestCancelOTP(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/orders/admin/order/"+url.PathEscape(id)+"/cancel-otp", nil, nil)
}

// --- Wishlist ---

func (c *Client) Wishlist(ctx context.Context) ([]models.Product, error) {
	var out struct {
		Products []models.Product `json:"products"`
	}
	err := c.do(ctx, http.MethodGet, "/api/wishlist/me", nil, &out)
	return out.Products, err
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodPost, "/api/wishlist/add", map[string]string{"productId": productID}, nil)
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/api/wishlist/"+url.PathEscape(productID), nil, nil)
}

// --- Checkout ---

// ShippingDraft fetches the address draft kept in the server-side checkout session.
func (c *Client) ShippingDraft(ctx context.Context) (models.ShippingInfo, error) {
	var out struct {
		ShippingInfo models.ShippingInfo `json:"shippingInfo"`
	}
	err := c.do(ctx, http.MethodGet, "/api/checkout/shipping", nil, &out)
	return out.ShippingInfo, err
}

func (c *Client) SaveShippingDraft(ctx context.Context, info models.ShippingInfo) error {
	return c.do(ctx, http.MethodPut, "/api/checkout/shipping", info, nil)
}

// UPIQR downloads the PNG payment QR for amount.
func (c *Client) UPIQR(ctx context.Context, amount float64) ([]byte, error) {
	path := "/api/payment/upi-qr?amount=" + strconv.FormatFloat(amount, 'f', -1, 64)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png")
	res, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}
