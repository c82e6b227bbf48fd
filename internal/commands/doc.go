// Package commands implements the chat command surface.
//
// Every command is a registered Command with its own Parse and Execute, so
// argument validation and authorization stay local to the command. The
// Dispatcher recognises the configured prefix, drops replayed messages via
// the duplicate guard, runs the command and always answers with a short
// Spanish reply; errors and panics never escape Dispatch.
//
// Commands:
//
//	pedido (pedir)          create a request: titulo [| descripcion] [| prioridad]
//	pedidos                 up to 15 open requests by priority
//	mispedidos              the caller's own requests
//	verpedido <id>          request detail
//	votar <id>              one vote per sender
//	cancelarpedido <id>     requester or admin
//	estadopedido <id> <e>   admin only
//	procesarpedido <id> [p] run library matching (alias buscarpedido)
//	enviar <itemId>         send a library file (alias descargar)
//	ayuda                   list commands
package commands
