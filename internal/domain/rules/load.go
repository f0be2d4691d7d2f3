package rules

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-playground/validator/v10"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-engine/internal/domain/product"
)

// document mirrors the wire shape of a rule document before semantic checks.
type document struct {
	Version    *decimal.Decimal `json:"version"`
	Threshold  *decimal.Decimal `json:"total_discount_threshold"`
	Percentage *decimal.Decimal `json:"total_discount_percentage"`
	Products   []productDoc     `json:"products" validate:"required,unique=ID,dive"`
}

type productDoc struct {
	ID                string           `json:"id" validate:"required"`
	Name              string           `json:"name" validate:"required"`
	Price             *decimal.Decimal `json:"price" validate:"required"`
	DiscountThreshold *decimal.Decimal `json:"discount_threshold"`
	DiscountPrice     *decimal.Decimal `json:"discount_price"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load parses a JSON rule document into a RuleSet. Any problem is reported
// as a *ParseError.
func Load(data []byte) (*RuleSet, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, &ParseError{Err: errors.Wrap(ErrMalformed, err.Error())}
	}
	if err := validate.Struct(doc); err != nil {
		return nil, validationError(doc, err)
	}
	return build(doc)
}

// LoadFile reads a rule document from path. Files ending in .gz are
// decompressed first.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Load(data)
}

func decodeDocument(data []byte) (*document, error) {
	d := jx.DecodeBytes(data)
	if tt := d.Next(); tt != jx.Object {
		return nil, &ParseError{Err: errors.Wrapf(ErrMalformed, "expected object, got %s", tt)}
	}

	doc := new(document)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch k := string(key); k {
		case "version":
			doc.Version, err = decodeNumber(d, k)
		case "total_discount_threshold":
			doc.Threshold, err = decodeNumber(d, k)
		case "total_discount_percentage":
			doc.Percentage, err = decodeNumber(d, k)
		case "products":
			doc.Products, err = decodeProducts(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !jx.Valid(data) {
		return nil, &ParseError{Err: errors.Wrap(ErrMalformed, "unexpected data after document")}
	}
	return doc, nil
}

func decodeProducts(d *jx.Decoder) ([]productDoc, error) {
	if tt := d.Next(); tt != jx.Array {
		return nil, &ParseError{Field: "products", Err: errors.Wrapf(ErrMalformed, "expected array, got %s", tt)}
	}
	products := []productDoc{}
	err := d.Arr(func(d *jx.Decoder) error {
		prefix := "products[" + strconv.Itoa(len(products)) + "]."
		if tt := d.Next(); tt != jx.Object {
			return &ParseError{
				Field: strings.TrimSuffix(prefix, "."),
				Err:   errors.Wrapf(ErrMalformed, "expected object, got %s", tt),
			}
		}
		var p productDoc
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch k := string(key); k {
			case "id":
				p.ID, err = decodeString(d, prefix+k)
			case "name":
				p.Name, err = decodeString(d, prefix+k)
			case "price":
				p.Price, err = decodeNumber(d, prefix+k)
			case "discount_threshold":
				p.DiscountThreshold, err = decodeNumber(d, prefix+k)
			case "discount_price":
				p.DiscountPrice, err = decodeNumber(d, prefix+k)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	})
	return products, err
}

func decodeString(d *jx.Decoder, field string) (string, error) {
	if tt := d.Next(); tt != jx.String {
		return "", &ParseError{Field: field, Err: errors.Wrapf(ErrMalformed, "expected string, got %s", tt)}
	}
	return d.Str()
}

// decodeNumber reads an exact decimal. JSON null decodes to nil.
func decodeNumber(d *jx.Decoder, field string) (*decimal.Decimal, error) {
	switch tt := d.Next(); tt {
	case jx.Null:
		return nil, d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, &ParseError{Field: field, Err: errors.Wrap(ErrInvalidNumber, err.Error())}
		}
		return &v, nil
	default:
		return nil, &ParseError{Field: field, Err: errors.Wrapf(ErrInvalidNumber, "expected number, got %s", tt)}
	}
}

func validationError(doc *document, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ParseError{Err: err}
	}
	fe := verrs[0]
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "required":
		return &ParseError{Field: field, Err: ErrMissingField}
	case "unique":
		seen := make(map[string]struct{}, len(doc.Products))
		for _, p := range doc.Products {
			if _, ok := seen[p.ID]; ok {
				return &ParseError{Field: field, Err: errors.Wrapf(ErrDuplicateProduct, "%q", p.ID)}
			}
			seen[p.ID] = struct{}{}
		}
		return &ParseError{Field: field, Err: ErrDuplicateProduct}
	default:
		return &ParseError{Field: field, Err: errors.Errorf("failed %q validation", fe.Tag())}
	}
}

func build(doc *document) (*RuleSet, error) {
	rs := &RuleSet{
		products: make([]product.Product, 0, len(doc.Products)),
		index:    make(map[string]int, len(doc.Products)),
	}

	if doc.Version != nil {
		v, err := toInt(*doc.Version, "version")
		if err != nil {
			return nil, err
		}
		rs.version = int64(v)
	}

	order, err := buildOrderDiscount(doc)
	if err != nil {
		return nil, err
	}
	rs.order = order

	for i, pd := range doc.Products {
		p, err := buildProduct(pd, "products["+strconv.Itoa(i)+"].")
		if err != nil {
			return nil, err
		}
		rs.index[p.ID] = len(rs.products)
		rs.products = append(rs.products, p)
	}

	return rs, nil
}

func buildOrderDiscount(doc *document) (*OrderDiscount, error) {
	if doc.Threshold != nil {
		if err := nonNegative(*doc.Threshold, "total_discount_threshold"); err != nil {
			return nil, err
		}
	}
	if doc.Percentage != nil {
		if doc.Percentage.IsNegative() || doc.Percentage.GreaterThan(hundred) {
			return nil, &ParseError{
				Field: "total_discount_percentage",
				Err:   errors.Wrapf(ErrOutOfRange, "%s not within 0-100", doc.Percentage),
			}
		}
	}

	// A zero threshold is the same as none: the policy is off, and a
	// percentage without a threshold is half specified.
	if doc.Threshold == nil || doc.Threshold.IsZero() {
		if doc.Percentage != nil && !doc.Percentage.IsZero() {
			return nil, &ParseError{Field: "total_discount_threshold", Err: ErrMissingField}
		}
		return nil, nil
	}
	if doc.Percentage == nil {
		return nil, &ParseError{Field: "total_discount_percentage", Err: ErrMissingField}
	}
	return &OrderDiscount{Threshold: *doc.Threshold, Percentage: *doc.Percentage}, nil
}

func buildProduct(pd productDoc, prefix string) (product.Product, error) {
	if err := nonNegative(*pd.Price, prefix+"price"); err != nil {
		return product.Product{}, err
	}
	if pd.DiscountPrice != nil {
		if err := nonNegative(*pd.DiscountPrice, prefix+"discount_price"); err != nil {
			return product.Product{}, err
		}
	}
	p := product.Product{ID: pd.ID, Name: pd.Name, Price: *pd.Price}

	if pd.DiscountThreshold == nil {
		return p, nil
	}
	threshold, err := toInt(*pd.DiscountThreshold, prefix+"discount_threshold")
	if err != nil {
		return product.Product{}, err
	}
	if threshold == 0 {
		return p, nil
	}
	if pd.DiscountPrice == nil {
		return product.Product{}, &ParseError{Field: prefix + "discount_price", Err: ErrMissingField}
	}
	p.Volume = &product.VolumeDiscount{Threshold: threshold, Price: *pd.DiscountPrice}
	return p, nil
}

// toInt accepts integral values written either way, e.g. 2 or 2.0.
func toInt(v decimal.Decimal, field string) (int, error) {
	if !v.IsInteger() {
		return 0, &ParseError{Field: field, Err: errors.Wrapf(ErrInvalidNumber, "%s is not an integer", v)}
	}
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, &ParseError{Field: field, Err: errors.Wrapf(ErrOutOfRange, "%s", v)}
	}
	return int(v.IntPart()), nil
}

func nonNegative(v decimal.Decimal, field string) error {
	if v.IsNegative() {
		return &ParseError{Field: field, Err: errors.Wrapf(ErrOutOfRange, "%s is negative", v)}
	}
	return nil
}
