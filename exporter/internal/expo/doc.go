// Package expo renders bound schedules as Prometheus metric families.
//
// Every row of every table becomes a gauge sample labelled with the bound
// name and its sample count. Quantile bounds also publish the rank window.
// Families are built with client_model types and written through the
// expfmt encoder, so /metrics serves text or protobuf as negotiated.
package expo
