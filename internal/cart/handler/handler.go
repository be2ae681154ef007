package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/freshmarket-storefront/internal/cart"
	"github.com/fekuna/freshmarket-storefront/internal/catalog"
	catalogdto "github.com/fekuna/freshmarket-storefront/internal/catalog/dto"
	"github.com/fekuna/freshmarket-storefront/internal/checkout"
	checkoutdto "github.com/fekuna/freshmarket-storefront/internal/checkout/dto"
	"github.com/fekuna/freshmarket-storefront/internal/model"
	"github.com/fekuna/freshmarket-storefront/internal/order"
	"github.com/fekuna/freshmarket-storefront/pkg/logger"
)

const usage = `commands:
  categories                     list categories
  products [category] [search]   browse products
  add <id>                       add one unit of a product
  remove <id>                    remove a product
  qty <id> <n>                   set a product quantity (0 removes)
  clear                          empty the cart
  cart                           show the cart
  checkout <payment> <address>   place the order (credit, debit, pix, cash)
  orders                         list your orders
  login <token> | logout         switch session
  quit`

var errUsage = errors.New("invalid command")

// SessionSwitcher is implemented by sessions that can sign in and out.
type SessionSwitcher interface {
	SignIn(token string) error
	SignOut()
}

// StorefrontHandler maps terminal commands onto the storefront usecases.
// Usecases report their own outcomes through notifications; the handler
// only prints listings.
type StorefrontHandler struct {
	cart     cart.UseCase
	catalog  catalog.UseCase
	checkout checkout.UseCase
	orders   order.UseCase
	session  SessionSwitcher
	out      io.Writer
	logger   logger.ZapLogger
}

func NewStorefrontHandler(
	cartUC cart.UseCase,
	catalogUC catalog.UseCase,
	checkoutUC checkout.UseCase,
	orderUC order.UseCase,
	session SessionSwitcher,
	out io.Writer,
	log logger.ZapLogger,
) *StorefrontHandler {
	return &StorefrontHandler{
		cart:     cartUC,
		catalog:  catalogUC,
		checkout: checkoutUC,
		orders:   orderUC,
		session:  session,
		out:      out,
		logger:   log,
	}
}

// Run reads commands from in until quit, EOF or ctx is done.
func (h *StorefrontHandler) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	h.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := h.Handle(ctx, line)
			if errors.Is(err, errUsage) {
				fmt.Fprintln(h.out, usage)
			} else if err != nil {
				h.logger.Debug("command failed", zap.String("command", line), zap.Error(err))
			}
			if quit {
				return nil
			}
			h.prompt()
		}
	}
}

func (h *StorefrontHandler) prompt() {
	fmt.Fprintf(h.out, "[%d] > ", h.cart.TotalItems())
}

// Handle executes one command line. It reports whether the session should end.
func (h *StorefrontHandler) Handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(h.out, usage)
		return false, nil
	case "categories":
		return false, h.listCategories(ctx)
	case "products":
		return false, h.listProducts(ctx, args)
	case "add":
		id, err := parseID(args, 1)
		if err != nil {
			return false, err
		}
		p, err := h.catalog.GetProduct(ctx, id)
		if err != nil {
			fmt.Fprintf(h.out, "product %d not found\n", id)
			return false, err
		}
		return false, h.cart.AddToCart(ctx, *p)
	case "remove":
		id, err := parseID(args, 1)
		if err != nil {
			return false, err
		}
		return false, h.cart.RemoveFromCart(ctx, id)
	case "qty":
		id, err := parseID(args, 2)
		if err != nil {
			return false, err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("%w: quantity %q", errUsage, args[1])
		}
		return false, h.cart.UpdateQuantity(ctx, id, n)
	case "clear":
		return false, h.cart.ClearCart(ctx)
	case "cart":
		h.printCart()
		return false, nil
	case "checkout":
		return false, h.placeOrder(ctx, args)
	case "orders":
		return false, h.listOrders(ctx)
	case "login":
		if len(args) != 1 || h.session == nil {
			return false, errUsage
		}
		return false, h.session.SignIn(args[0])
	case "logout":
		if h.session == nil {
			return false, errUsage
		}
		h.session.SignOut()
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", errUsage, cmd)
	}
}

func (h *StorefrontHandler) listCategories(ctx context.Context) error {
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(h.out, catalogdto.AllCategories)
	for _, c := range categories {
		fmt.Fprintln(h.out, c.Name)
	}
	return nil
}

func (h *StorefrontHandler) listProducts(ctx context.Context, args []string) error {
	filter := &catalogdto.BrowseFilter{Category: catalogdto.AllCategories}
	if len(args) > 0 {
		filter.Category = args[0]
	}
	if len(args) > 1 {
		filter.Search = strings.Join(args[1:], " ")
	}

	products, err := h.catalog.Browse(ctx, filter)
	for _, p := range products {
		fmt.Fprintf(h.out, "%4d  %-20s %10s/%s  %s\n", p.ID, p.Name, money(p.Price), p.Unit, p.Category)
	}
	return err
}

func (h *StorefrontHandler) printCart() {
	lines := h.cart.Items()
	if len(lines) == 0 {
		fmt.Fprintln(h.out, "cart is empty")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(h.out, "%4d  %-20s %3d x %10s = %10s\n", l.ID, l.Name, l.Quantity, money(l.Price), money(l.Subtotal()))
	}
	q := h.checkout.Quote()
	fmt.Fprintf(h.out, "items: %d\nsubtotal: %s\ndelivery: %s\ntotal: %s\n",
		h.cart.TotalItems(), money(q.Subtotal), money(q.DeliveryFee), money(q.Total))
}

func (h *StorefrontHandler) placeOrder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	input := &checkoutdto.PlaceOrderInput{
		PaymentMethod: model.PaymentMethod(strings.ToLower(args[0])),
		Delivery:      model.DeliveryInfo{Address: strings.Join(args[1:], " ")},
	}
	order, err := h.checkout.PlaceOrder(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "order %s total %s\n", order.ID, money(order.Total))
	return nil
}

func (h *StorefrontHandler) listOrders(ctx context.Context) error {
	orders, err := h.orders.MyOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(h.out, "no orders yet")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(h.out, "%s  %s  %-10s %10s\n", o.ID, o.CreatedAt.Format("02/01/2006"), o.Status, money(o.Total))
		for _, item := range o.Items {
			fmt.Fprintf(h.out, "    %-20s x%d  %10s\n", item.Name, item.Quantity, money(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))))
		}
	}
	return nil
}

func parseID(args []string, want int) (int64, error) {
	if len(args) != want {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: product id %q", errUsage, args[0])
	}
	return id, nil
}

func money(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
