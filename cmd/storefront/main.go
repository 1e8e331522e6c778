// Command storefront is a terminal storefront over the NexusMart API.
//
//	storefront [-api URL] [-data DIR] <command> [args]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nexusmart/internal/lifecycle"
	"nexusmart/internal/models"
	"nexusmart/internal/storefront"
)

const usage = `usage: storefront [-api URL] [-data DIR] <command> [args]

account:   register NAME EMAIL PASSWORD | verify EMAIL OTP | login EMAIL PASSWORD | logout | me
           forgot EMAIL | reset EMAIL OTP PASSWORD
catalog:   products [KEYWORD] | product ID | categories
cart:      cart | add ID [QTY] | qty ID QTY | rm ID | clear
checkout:  ship ADDRESS CITY POSTAL PHONE [COUNTRY] | confirm | qr FILE | pay UTR
orders:    orders | cancel ID
wishlist:  wishlist | wish ID
admin:     admin orders [TAB] | admin stats | admin verify|reject|ship ID
           admin deliver ID OTP | admin cancel ID
           admin category NAME | admin rm-category ID | admin rm-product ID
`

type app struct {
	client   *storefront.Client
	store    storefront.Storage
	cart     *storefront.Cart
	shipping *storefront.ShippingDraft
	checkout *storefront.Checkout
	wishlist *storefront.Wishlist
	admin    *storefront.Admin
	out      *tabwriter.Writer
	logger   *zap.Logger
}

func main() {
	home, _ := os.UserHomeDir()
	apiURL := flag.String("api", envOr("NEXUSMART_API", "http://localhost:5000"), "API base URL")
	dataDir := flag.String("data", envOr("NEXUSMART_DATA", filepath.Join(home, ".nexusmart")), "local state directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	a, err := newApp(*apiURL, *dataDir, logger)
	if err != nil {
		logger.Fatal("❌ init", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, flag.Args()); err != nil {
		var apiErr *storefront.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(os.Stderr, "❌", apiErr.Message)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newApp(apiURL, dataDir string, logger *zap.Logger) (*app, error) {
	store, err := storefront.NewFileStorage(dataDir)
	if err != nil {
		return nil, err
	}
	client := storefront.NewClient(apiURL)
	var token string
	if _, err := store.Load(storefront.KeyToken, &token); err != nil {
		logger.Warn("⚠️ ignoring unreadable session", zap.Error(err))
	}
	client.SetToken(token)

	cart, err := storefront.LoadCart(store)
	if err != nil {
		return nil, err
	}
	shipping := storefront.NewShippingDraft(store)
	return &app{
		client:   client,
		store:    store,
		cart:     cart,
		shipping: shipping,
		checkout: storefront.NewCheckout(client, cart, shipping, store),
		wishlist: storefront.NewWishlist(client),
		admin:    storefront.NewAdmin(client),
		out:      tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0),
		logger:   logger,
	}, nil
}

func need(args []string, n int) error {
	if len(args) < n {
		return errors.Errorf("missing arguments\n%s", usage)
	}
	return nil
}

func (a *app) run(ctx context.Context, args []string) error {
	defer a.out.Flush()
	cmd, args := args[0], args[1:]

	switch cmd {
	case "register":
		if err := need(args, 3); err != nil {
			return err
		}
		if _, err := a.client.Register(ctx, args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "📧 OTP sent, run: storefront verify", args[1], "<otp>")
	case "verify":
		if err := need(args, 2); err != nil {
			return err
		}
		u, err := a.client.Verify(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return a.saveSession(u)
	case "login":
		if err := need(args, 2); err != nil {
			return err
		}
		u, err := a.client.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return a.saveSession(u)
	case "logout":
		if err := a.client.Logout(ctx); err != nil {
			a.logger.Warn("⚠️ logout", zap.Error(err))
		}
		return a.store.Delete(storefront.KeyToken)
	case "me":
		u, err := a.client.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", u.Name, u.Email, u.Role)
	case "forgot":
		if err := need(args, 1); err != nil {
			return err
		}
		if err := a.client.ForgotPassword(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "📧 if the account exists, a reset OTP was sent")
	case "reset":
		if err := need(args, 3); err != nil {
			return err
		}
		return a.client.ResetPassword(ctx, args[0], args[1], args[2], args[2])

	case "products":
		products, err := a.client.Products(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		a.printProducts(products)
	case "product":
		if err := need(args, 1); err != nil {
			return err
		}
		p, err := a.client.Product(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\n%s\n₹%.2f\tstock %d\n", p.Name, p.Description, p.Price, p.Stock)
	case "categories":
		cats, err := a.client.Categories(ctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Fprintf(a.out, "%s\t%s\n", c.ID, c.Name)
		}

	case "cart":
		a.printCart()
	case "add":
		if err := need(args, 1); err != nil {
			return err
		}
		qty, err := optInt(args, 1, 1)
		if err != nil {
			return err
		}
		p, err := a.client.Product(ctx, args[0])
		if err != nil {
			return err
		}
		if err := a.cart.Add(*p, qty); err != nil {
			return err
		}
		a.printCart()
	case "qty":
		if err := need(args, 2); err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrap(err, "quantity")
		}
		if err := a.cart.UpdateQuantity(args[0], qty); err != nil {
			return err
		}
		a.printCart()
	case "rm":
		if err := need(args, 1); err != nil {
			return err
		}
		if err := a.cart.Remove(args[0]); err != nil {
			return err
		}
		a.printCart()
	case "clear":
		return a.cart.Clear()

	case "ship":
		if err := need(args, 4); err != nil {
			return err
		}
		info := models.ShippingInfo{Address: args[0], City: args[1], PostalCode: args[2], PhoneNo: args[3]}
		if len(args) > 4 {
			info.Country = args[4]
		}
		missing, err := a.shipping.Save(info)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return errors.Errorf("missing: %s", strings.Join(missing, ", "))
		}
		fmt.Fprintln(a.out, "📦 shipping address saved")
	case "confirm":
		prices, err := a.checkout.Confirm()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Items\t₹%.2f\nTax (18%%)\t₹%.2f\nShipping\t₹%.2f\nTotal\t₹%.2f\n",
			prices.ItemsPrice, prices.TaxPrice, prices.ShippingPrice, prices.TotalPrice)
	case "qr":
		if err := need(args, 1); err != nil {
			return err
		}
		png, err := a.checkout.QR(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], png, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "🧾 scan", args[0], "with any UPI app, then run: storefront pay <UTR>")
	case "pay":
		if err := need(args, 1); err != nil {
			return err
		}
		order, err := a.checkout.Pay(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✅ order %s placed, the admin will verify your UTR\n", order.ID)

	case "orders":
		orders, err := a.client.MyOrders(ctx)
		if err != nil {
			return err
		}
		a.printOrders(orders, true)
	case "cancel":
		if err := need(args, 1); err != nil {
			return err
		}
		order, err := a.client.CancelOrder(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "order %s is %s\n", order.ID, order.OrderStatus)

	case "wishlist":
		if err := a.wishlist.Refresh(ctx); err != nil {
			return err
		}
		a.printProducts(a.wishlist.Items())
	case "wish":
		if err := need(args, 1); err != nil {
			return err
		}
		if err := a.wishlist.Refresh(ctx); err != nil {
			return err
		}
		p, err := a.client.Product(ctx, args[0])
		if err != nil {
			return err
		}
		added, err := a.wishlist.Toggle(ctx, *p)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintln(a.out, "❤️ added to wishlist")
		} else {
			fmt.Fprintln(a.out, "removed from wishlist")
		}

	case "admin":
		if err := need(args, 1); err != nil {
			return err
		}
		return a.runAdmin(ctx, args[0], args[1:])
	default:
		return errors.Errorf("unknown command %q\n%s", cmd, usage)
	}
	return nil
}

func (a *app) runAdmin(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "orders":
		tab := lifecycle.Tab("")
		if len(args) > 0 {
			tab = lifecycle.Tab(args[0])
		}
		orders, err := a.admin.Orders(ctx, tab)
		if err != nil {
			return err
		}
		a.printOrders(orders, false)
		fmt.Fprintf(a.out, "\nRevenue (verified)\t₹%.2f\n", storefront.Revenue(orders))
		return nil
	case "stats":
		s, err := a.admin.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Orders\t%d\nRevenue\t₹%.2f\nPending payments\t%d\n", s.TotalOrders, s.TotalRevenue, s.PendingPayments)
		for status, n := range s.ByStatus {
			fmt.Fprintf(a.out, "  %s\t%d\n", status, n)
		}
		return nil
	case "category":
		if err := need(args, 1); err != nil {
			return err
		}
		c, err := a.client.CreateCategory(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%s\n", c.ID, c.Name)
		return nil
	case "rm-category":
		if err := need(args, 1); err != nil {
			return err
		}
		return a.client.DeleteCategory(ctx, args[0])
	case "rm-product":
		if err := need(args, 1); err != nil {
			return err
		}
		return a.client.DeleteProduct(ctx, args[0])
	}

	if err := need(args, 1); err != nil {
		return err
	}
	id := args[0]
	var (
		order *models.Order
		err   error
	)
	switch cmd {
	case "verify":
		order, err = a.admin.VerifyPayment(ctx, id)
	case "reject":
		order, err = a.admin.RejectPayment(ctx, id)
	case "ship":
		order, err = a.admin.Ship(ctx, id)
	case "deliver":
		if err := need(args, 2); err != nil {
			return err
		}
		order, err = a.admin.Deliver(ctx, id, args[1])
	case "cancel":
		order, err = a.cancel(ctx, id)
	default:
		return errors.Errorf("unknown admin command %q\n%s", cmd, usage)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "order %s\t%s\tpayment %s\n", order.ID, order.OrderStatus, order.PaymentInfo.Status)
	return nil
}

func (a *app) cancel(ctx context.Context, id string) (*models.Order, error) {
	orders, err := a.admin.Orders(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.ID != id {
			continue
		}
		return a.admin.Cancel(ctx, o, func(_ context.Context, o models.Order) (string, error) {
			a.out.Flush()
			fmt.Printf("Order %s is shipped. Enter the cancellation OTP sent to the admin email: ", o.ID)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(line), nil
		})
	}
	return nil, errors.Errorf("order %s not found", id)
}

func (a *app) saveSession(u *models.User) error {
	if err := a.store.Save(storefront.KeyToken, a.client.Token()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "👋 signed in as %s (%s)\n", u.Name, u.Email)
	return nil
}

func optInt(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	return n, errors.Wrap(err, "quantity")
}

func (a *app) printProducts(products []models.Product) {
	for _, p := range products {
		fmt.Fprintf(a.out, "%s\t%s\t₹%.2f\tstock %d\n", p.ID, p.Name, p.Price, p.Stock)
	}
}

func (a *app) printCart() {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "🛒 cart is empty")
		return
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%s\t%s\t%d × ₹%.2f\n", it.ProductID, it.Name, it.Quantity, it.Price)
	}
	fmt.Fprintf(a.out, "Subtotal\t\t₹%.2f\n", a.cart.Subtotal())
}

func (a *app) printOrders(orders []models.Order, showOTP bool) {
	for _, o := range orders {
		line := fmt.Sprintf("%s\t%s\t%s\tpayment %s\t₹%.2f", o.CreatedAt.Format("2006-01-02"), o.ID, o.OrderStatus, o.PaymentInfo.Status, o.TotalPrice)
		if showOTP && o.OrderStatus == models.OrderShipped && o.DeliveryOTP != "" {
			line += "\tdelivery OTP " + o.DeliveryOTP
		}
		fmt.Fprintln(a.out, line)
	}
}
