package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/hbnb/internal/platform/errors"
	"github.com/louisbranch/hbnb/internal/platform/i18n/catalog"
	"github.com/louisbranch/hbnb/internal/services/hbnb/models"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage"
)

func (c *Console) doCreate(ctx context.Context, args string) bool {
	fields := strings.Fields(args)
	class, ok := c.requireClass(fields)
	if !ok {
		return false
	}
	e, err := c.reg.Create(class, nil)
	if err != nil {
		c.fail(ctx, err, "")
		return false
	}
	for _, param := range fields[1:] {
		name, raw, found := strings.Cut(param, "=")
		if !found || name == "" {
			continue
		}
		value, valid := parseParam(raw)
		if !valid {
			continue
		}
		if err := c.reg.Assign(e, name, value); err != nil {
			c.logger.Printf("console: create %s: skip %s: %v", class, name, err)
		}
	}
	if err := c.reg.Persist(ctx, e); err != nil {
		c.fail(ctx, err, "")
		return false
	}
	fmt.Fprintln(c.out, e.Meta().ID)
	return false
}

func (c *Console) doShow(ctx context.Context, args string) bool {
	e, ok := c.lookup(ctx, tokenTexts(splitArgs(args)))
	if !ok {
		return false
	}
	fmt.Fprintln(c.out, models.String(e))
	return false
}

func (c *Console) doDestroy(ctx context.Context, args string) bool {
	e, ok := c.lookup(ctx, tokenTexts(splitArgs(args)))
	if !ok {
		return false
	}
	if err := c.reg.Destroy(ctx, e); err != nil {
		c.fail(ctx, err, "")
	}
	return false
}

func (c *Console) doAll(ctx context.Context, args string) bool {
	class := ""
	if fields := strings.Fields(args); len(fields) > 0 {
		class = fields[0]
		if !models.IsClass(class) {
			c.report(apperrors.New(apperrors.CodeClassUnknown, "unknown class "+class))
			return false
		}
	}
	list, err := c.reg.List(ctx, class)
	if err != nil {
		c.fail(ctx, err, "")
		return false
	}
	items := make([]string, len(list))
	for i, e := range list {
		items[i] = models.Quote(models.String(e))
	}
	fmt.Fprintf(c.out, "[%s]\n", strings.Join(items, ", "))
	return false
}

func (c *Console) doUpdate(ctx context.Context, args string) bool {
	classTok, rest, _ := nextToken(args)
	idTok, rest, _ := nextToken(rest)
	var head []string
	for _, tok := range []token{classTok, idTok} {
		if tok.Text != "" {
			head = append(head, tok.Text)
		}
	}
	e, ok := c.lookup(ctx, head)
	if !ok {
		return false
	}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "{") {
		attrs, err := parseDict(rest)
		if err != nil {
			c.report(apperrors.WrapWithMetadata(apperrors.CodeAttributeInvalid, "parse dictionary", map[string]string{"Attribute": rest}, err))
			return false
		}
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.reg.Assign(e, name, attrs[name]); err != nil {
				c.report(classify(err, name))
				c.resync(ctx)
				return false
			}
		}
		if err := c.reg.Persist(ctx, e); err != nil {
			c.fail(ctx, err, "")
		}
		return false
	}

	tokens := splitArgs(rest)
	if len(tokens) == 0 {
		c.report(apperrors.New(apperrors.CodeAttributeNameMissing, "attribute name missing"))
		return false
	}
	if len(tokens) == 1 {
		c.report(apperrors.New(apperrors.CodeValueMissing, "value missing"))
		return false
	}
	name := tokens[0].Text
	var value any = tokens[1].Text
	if !tokens[1].Quoted {
		value = parseScalar(tokens[1].Text)
	}
	if err := c.reg.Update(ctx, e, name, value); err != nil {
		c.fail(ctx, err, name)
	}
	return false
}

func (c *Console) doCount(ctx context.Context, args string) bool {
	class, ok := c.requireClass(strings.Fields(args))
	if !ok {
		return false
	}
	n, err := c.reg.Count(ctx, class)
	if err != nil {
		c.fail(ctx, err, "")
		return false
	}
	fmt.Fprintln(c.out, n)
	return false
}

func (c *Console) doHelp(_ context.Context, args string) bool {
	topic := strings.TrimSpace(args)
	if topic == "" {
		names := make([]string, 0, len(c.commands))
		for name := range c.commands {
			names = append(names, name)
		}
		sort.Strings(names)
		header := c.printer.Sprintf("console.help.header")
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, header)
		fmt.Fprintln(c.out, strings.Repeat("=", len([]rune(header))))
		fmt.Fprintln(c.out, strings.Join(names, "  "))
		fmt.Fprintln(c.out)
		return false
	}
	key := "console.help." + topic
	if _, ok := c.commands[topic]; !ok {
		fmt.Fprintln(c.out, c.printer.Sprintf("console.help.missing", topic))
		return false
	}
	if _, ok := catalog.Default().Message(c.locale, key); !ok {
		fmt.Fprintln(c.out, c.printer.Sprintf("console.help.missing", topic))
		return false
	}
	fmt.Fprintln(c.out, c.printer.Sprintf(key))
	return false
}

func (c *Console) doQuit(context.Context, string) bool {
	return true
}

func (c *Console) doEOF(context.Context, string) bool {
	return true
}

// requireClass validates the class argument at fields[0].
func (c *Console) requireClass(fields []string) (string, bool) {
	if len(fields) == 0 {
		c.report(apperrors.New(apperrors.CodeClassNameMissing, "class name missing"))
		return "", false
	}
	if !models.IsClass(fields[0]) {
		c.report(apperrors.New(apperrors.CodeClassUnknown, "unknown class "+fields[0]))
		return "", false
	}
	return fields[0], true
}

// lookup resolves "<class> <id>" arguments to a registered entity.
func (c *Console) lookup(ctx context.Context, args []string) (models.Entity, bool) {
	class, ok := c.requireClass(args)
	if !ok {
		return nil, false
	}
	if len(args) < 2 {
		c.report(apperrors.New(apperrors.CodeInstanceIDMissing, "instance id missing"))
		return nil, false
	}
	e, err := c.reg.Get(ctx, class, args[1])
	if err != nil {
		c.fail(ctx, err, "")
		return nil, false
	}
	return e, true
}

func (c *Console) unknownSyntax(line string) {
	c.report(apperrors.WithMetadata(apperrors.CodeUnknownSyntax, "unknown syntax", map[string]string{"Line": line}))
}

// fail reports err and, when the working set may hold a rejected change,
// reloads it from the durable medium.
func (c *Console) fail(ctx context.Context, err error, attribute string) {
	domainErr := classify(err, attribute)
	c.report(domainErr)
	if domainErr.Code.Recoverable() {
		return
	}
	c.resync(ctx)
}

// resync discards uncommitted changes.
func (c *Console) resync(ctx context.Context) {
	if err := c.reg.Reload(ctx); err != nil {
		c.logger.Printf("console: reload after failure: %v", err)
	}
}

func (c *Console) report(err *apperrors.Error) {
	fmt.Fprintln(c.out, err.Localize(c.locale))
}

func classify(err error, attribute string) *apperrors.Error {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	meta := map[string]string{"Attribute": attribute, "Reason": err.Error()}
	switch {
	case errors.Is(err, models.ErrUnknownClass):
		return apperrors.Wrap(apperrors.CodeClassUnknown, err.Error(), err)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, err.Error(), err)
	case errors.Is(err, models.ErrReadOnlyAttribute):
		return apperrors.WrapWithMetadata(apperrors.CodeAttributeReadOnly, err.Error(), meta, err)
	case errors.Is(err, models.ErrUnknownAttribute):
		return apperrors.WrapWithMetadata(apperrors.CodeAttributeUnknown, err.Error(), meta, err)
	case errors.Is(err, models.ErrInvalidValue):
		return apperrors.WrapWithMetadata(apperrors.CodeAttributeInvalid, err.Error(), meta, err)
	case errors.Is(err, storage.ErrConstraint):
		return apperrors.WrapWithMetadata(apperrors.CodeStorageConstraint, err.Error(), meta, err)
	case errors.Is(err, storage.ErrUnavailable):
		return apperrors.WrapWithMetadata(apperrors.CodeStorageUnavailable, err.Error(), meta, err)
	default:
		return apperrors.WrapWithMetadata(apperrors.CodeUnknown, err.Error(), meta, err)
	}
}

// parseScalar types an unquoted update value: integer, then float, then
// plain text.
func parseScalar(text string) any {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}
