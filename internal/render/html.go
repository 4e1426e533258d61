package render

import (
	"bytes"
	"fmt"
	"html/template"
)

const printTemplate = `<!DOCTYPE html>
<html lang="vi">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; margin: 40px; color: #1a1a1a; }
header { display: flex; justify-content: space-between; margin-bottom: 24px; }
h1 { text-align: center; letter-spacing: 2px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { border: 1px solid #888; padding: 6px 8px; font-size: 14px; }
th { background: #f0f0f0; text-align: left; }
td.num, th.num { text-align: right; }
.total { text-align: right; font-size: 16px; font-weight: bold; margin-top: 12px; }
.signatures { display: flex; justify-content: space-between; margin-top: 60px; }
.signatures div { width: 40%; text-align: center; }
@media print { body { margin: 10mm; } }
</style>
</head>
<body>
<header>
  <div>
    <strong>{{.Company.Name}}</strong><br>
    {{if .Company.Address}}{{.Company.Address}}<br>{{end}}
    {{if .Company.TaxCode}}MST: {{.Company.TaxCode}}<br>{{end}}
    {{if .Company.Phone}}{{.Company.Phone}}{{end}}
  </div>
  <div>
    Ngày: {{.IssuedAt.Format "02/01/2006"}}
  </div>
</header>
<h1>BÁO GIÁ</h1>
<p>
  <strong>Khách hàng:</strong> {{.Customer.Name}}<br>
  {{if .Customer.TaxCode}}<strong>MST:</strong> {{.Customer.TaxCode}}<br>{{end}}
  {{if .Customer.Address}}<strong>Địa chỉ:</strong> {{.Customer.Address}}<br>{{end}}
  {{if .Customer.ContactPerson}}<strong>Người liên hệ:</strong> {{.Customer.ContactPerson}}{{end}}
</p>
<table>
  <thead>
    <tr>
      <th>#</th>
      <th>Hạng mục</th>
      <th>Phân loại</th>
      <th class="num">Đơn giá</th>
      <th class="num">SL</th>
      <th class="num">Thành tiền</th>
    </tr>
  </thead>
  <tbody>
    {{range .Lines}}
    <tr>
      <td>{{.Index}}</td>
      <td>{{.Name}}</td>
      <td>{{if .Category}}{{.Category}}{{else}}-{{end}}</td>
      <td class="num">{{vnd .UnitPrice}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{vnd .LineTotal}}</td>
    </tr>
    {{end}}
  </tbody>
</table>
<p class="total">Tổng cộng: {{vnd .Total}}</p>
<div class="signatures">
  <div>Đại diện bên mua<br><br><br>{{.Customer.ContactPerson}}</div>
  <div>Đại diện bên bán<br><br><br>{{.Company.Name}}</div>
</div>
</body>
</html>
`

// PrintRenderer produces the browser print view of a quote. The markup is a
// self-contained page the frontend opens in a new tab and hands to the
// browser's print dialog.
type PrintRenderer struct {
	tmpl *template.Template
}

func NewPrintRenderer() (*PrintRenderer, error) {
	tmpl, err := template.New("quote").Funcs(template.FuncMap{
		"vnd": FormatVND,
	}).Parse(printTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse print template: %w", err)
	}
	return &PrintRenderer{tmpl: tmpl}, nil
}

// Render produces the HTML print view for one quote document.
func (r *PrintRenderer) Render(doc QuoteDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render print view: %w", err)
	}
	return buf.Bytes(), nil
}
