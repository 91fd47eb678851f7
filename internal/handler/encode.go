package handler

import (
	"github.com/go-faster/jx"

	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/prefs"
	"github.com/xenking/vendas-storefront/internal/storefront"
)

func encodeCart(e *jx.Encoder, v storefront.CartView) {
	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range v.Lines {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Int64(l.ProductID)
		e.FieldStart("nome")
		e.Str(l.Nome)
		e.FieldStart("preco")
		e.Str(l.Preco)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("total")
		e.Str(l.Total)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	e.Str(v.Subtotal)
	e.FieldStart("discount")
	e.Str(v.Discount)
	e.FieldStart("total")
	e.Str(v.Total)
	e.FieldStart("item_count")
	e.Int(v.ItemCount)
	e.FieldStart("coupon")
	e.Str(v.Coupon)
	e.FieldStart("locked")
	e.Bool(v.Locked)
	e.FieldStart("state")
	e.Str(v.State.String())
	e.FieldStart("confirm_enabled")
	e.Bool(v.ConfirmEnabled)
	e.FieldStart("confirming")
	e.Bool(v.Confirming)
	e.FieldStart("empty")
	e.Bool(v.Empty)
	e.ObjEnd()
}

func encodeCatalog(e *jx.Encoder, v storefront.CatalogView) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, p := range v.Items {
		p.Encode(e)
	}
	e.ArrEnd()
	e.FieldStart("categories")
	e.ArrStart()
	for _, c := range v.Categories {
		e.Str(c)
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int(v.Total)
	e.FieldStart("page")
	e.Int(v.Page.Page)
	e.FieldStart("total_pages")
	e.Int(v.TotalPages)
	e.FieldStart("status")
	e.Str(v.Status)
	e.FieldStart("stale")
	e.Bool(v.Stale)
	e.FieldStart("prefs")
	encodePrefs(e, v.Prefs)
	e.ObjEnd()
}

func encodePrefs(e *jx.Encoder, ux prefs.UX) {
	e.ObjStart()
	e.FieldStart("sort")
	e.Str(ux.Sort)
	e.FieldStart("text")
	e.Str(ux.Text)
	e.FieldStart("categoria")
	e.Str(ux.Categoria)
	e.FieldStart("page")
	e.Int(ux.Page)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *checkout.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("total")
	e.Str(o.Total.StringFixed(2))
	e.ObjEnd()
}
